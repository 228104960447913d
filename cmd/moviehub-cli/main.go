package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"moviehub/internal/logging"
)

const defaultBaseURL = "http://localhost:8080"

var log zerolog.Logger

func main() {
	logging.Init(logging.Config{Level: "info", Console: true})
	log = logging.Component("cli")

	global := flag.NewFlagSet("moviehub", flag.ExitOnError)
	baseURL := global.String("api", envOr("MOVIEHUB_API", defaultBaseURL), "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("parse flags")
	}
	args := global.Args()
	if len(args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd, sub, rest := args[0], args[1], args[2:]
	c := &apiClient{http: &http.Client{Timeout: 15 * time.Second}, baseURL: *baseURL}

	// everything but login needs a stored token
	if !(cmd == "auth" && sub == "login") && cmd != "discover" {
		td, err := readToken(*tokenPath)
		if err != nil {
			log.Fatal().Err(err).Msg("token not found, please login")
		}
		c.token = td.Token
		c.refreshToken = td.RefreshToken
		c.tokenPath = *tokenPath
	}

	switch cmd {
	case "auth":
		handleAuth(ctx, c, *tokenPath, sub, rest)
	case "banned":
		handleBanned(ctx, c, sub, rest)
	case "local":
		handleLocal(ctx, c, sub, rest)
	case "discover":
		handleDiscover(ctx, c, sub, rest)
	case "users":
		handleUsers(ctx, c, sub, rest)
	case "watch":
		handleWatch(ctx, c, sub)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, c *apiClient, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *email == "" || *password == "" {
			log.Fatal().Msg("email and password are required")
		}

		var resp tokenData
		if err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": *email, "password": *password}, &resp); err != nil {
			log.Fatal().Err(err).Msg("login failed")
		}
		if err := saveToken(tokenPath, resp); err != nil {
			log.Fatal().Err(err).Msg("save token")
		}
		fmt.Println("logged in")
	case "logout":
		td, _ := readToken(tokenPath)
		if td.RefreshToken != "" {
			if err := c.do(ctx, http.MethodPost, "/api/auth/logout", map[string]string{"refresh_token": td.RefreshToken}, nil); err != nil {
				log.Warn().Err(err).Msg("server logout failed")
			}
		}
		if err := clearToken(tokenPath); err != nil {
			log.Fatal().Err(err).Msg("clear token")
		}
		fmt.Println("logged out")
	case "me":
		var out map[string]any
		if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
			log.Fatal().Err(err).Msg("me failed")
		}
		printJSON(out)
	default:
		log.Fatal().Msg("usage: moviehub auth <login|logout|me>")
	}
}

func handleBanned(ctx context.Context, c *apiClient, sub string, args []string) {
	fs := flag.NewFlagSet("banned "+sub, flag.ExitOnError)
	id := fs.Int64("id", 0, "external catalog id")
	kind := fs.String("type", "movie", "movie or tv")
	reason := fs.String("reason", "", "why the title is hidden")
	_ = fs.Parse(args)

	switch sub {
	case "list":
		var out map[string]any
		if err := c.do(ctx, http.MethodGet, "/api/admin/banned?media_type="+url.QueryEscape(*kind), nil, &out); err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		printJSON(out)
	case "add":
		var out map[string]any
		body := map[string]any{"tmdbId": *id, "media_type": *kind, "reason": *reason}
		if err := c.do(ctx, http.MethodPost, "/api/admin/banned", body, &out); err != nil {
			log.Fatal().Err(err).Msg("ban failed")
		}
		printJSON(out)
	case "remove":
		body := map[string]any{"tmdbId": *id, "media_type": *kind}
		if err := c.do(ctx, http.MethodDelete, "/api/admin/banned", body, nil); err != nil {
			log.Fatal().Err(err).Msg("unban failed")
		}
		fmt.Println("removed")
	default:
		log.Fatal().Msg("usage: moviehub banned <list|add|remove> [-id N] [-type movie|tv] [-reason text]")
	}
}

func handleLocal(ctx context.Context, c *apiClient, sub string, args []string) {
	fs := flag.NewFlagSet("local "+sub, flag.ExitOnError)
	id := fs.Int64("id", 0, "curated id (negative)")
	kind := fs.String("type", "movie", "movie or tv")
	title := fs.String("title", "", "title")
	overview := fs.String("overview", "", "overview")
	date := fs.String("date", "", "release or first air date, YYYY-MM-DD")
	file := fs.String("f", "", "JSON file with the full item, overrides other flags")
	_ = fs.Parse(args)

	switch sub {
	case "list":
		var out map[string]any
		if err := c.do(ctx, http.MethodGet, "/api/admin/local/media?media_type="+url.QueryEscape(*kind), nil, &out); err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		printJSON(out)
	case "add":
		var body map[string]any
		if *file != "" {
			data, err := os.ReadFile(*file)
			if err != nil {
				log.Fatal().Err(err).Msg("read item file")
			}
			if err := json.Unmarshal(data, &body); err != nil {
				log.Fatal().Err(err).Msg("parse item file")
			}
		} else {
			body = map[string]any{"media_type": *kind, "title": *title, "overview": *overview}
			if *kind == "tv" {
				body["first_air_date"] = *date
			} else {
				body["release_date"] = *date
			}
		}
		var out map[string]any
		if err := c.do(ctx, http.MethodPost, "/api/admin/local/media", body, &out); err != nil {
			log.Fatal().Err(err).Msg("create failed")
		}
		printJSON(out)
	case "delete":
		if *id >= 0 {
			log.Fatal().Msg("curated ids are negative")
		}
		if err := c.do(ctx, http.MethodDelete, "/api/admin/local/media/"+strconv.FormatInt(*id, 10), nil, nil); err != nil {
			log.Fatal().Err(err).Msg("delete failed")
		}
		fmt.Println("deleted")
	default:
		log.Fatal().Msg("usage: moviehub local <list|add|delete> [flags]")
	}
}

func handleDiscover(ctx context.Context, c *apiClient, kind string, args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	page := fs.Int("page", 1, "page")
	genres := fs.String("genres", "", "with_genres filter")
	sortBy := fs.String("sort", "", "sort_by filter")
	_ = fs.Parse(args)

	q := url.Values{"page": {strconv.Itoa(*page)}}
	if *genres != "" {
		q.Set("with_genres", *genres)
	}
	if *sortBy != "" {
		q.Set("sort_by", *sortBy)
	}

	var out struct {
		Results []struct {
			ID     int64  `json:"id"`
			Title  string `json:"title"`
			Origin string `json:"origin"`
		} `json:"results"`
		Degraded bool `json:"degraded"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/discover/"+url.PathEscape(kind)+"?"+q.Encode(), nil, &out); err != nil {
		log.Fatal().Err(err).Msg("discover failed")
	}
	if out.Degraded {
		fmt.Println("(external catalog unavailable, curated titles only)")
	}
	for _, it := range out.Results {
		fmt.Printf("%8d  %-8s  %s\n", it.ID, it.Origin, it.Title)
	}
}

func handleUsers(ctx context.Context, c *apiClient, sub string, args []string) {
	fs := flag.NewFlagSet("users "+sub, flag.ExitOnError)
	id := fs.String("id", "", "user id")
	_ = fs.Parse(args)

	var role string
	switch sub {
	case "promote":
		role = "admin"
	case "demote":
		role = "user"
	default:
		log.Fatal().Msg("usage: moviehub users <promote|demote> -id USER_ID")
	}
	if *id == "" {
		log.Fatal().Msg("-id is required")
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(*id)+"/role", map[string]string{"role": role}, &out); err != nil {
		log.Fatal().Err(err).Msg("role change failed")
	}
	printJSON(out)
}

// handleWatch prints list events pushed to the logged-in user.
func handleWatch(ctx context.Context, c *apiClient, sub string) {
	if sub != "lists" {
		log.Fatal().Msg("usage: moviehub watch lists")
	}
	conn, resp, err := dialEvents(ctx, c)
	if err != nil && resp != nil && resp.StatusCode == http.StatusUnauthorized && c.canRefresh("/ws") {
		if rerr := c.refresh(ctx); rerr != nil {
			log.Fatal().Err(rerr).Msg("session expired, please login")
		}
		conn, _, err = dialEvents(ctx, c)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	defer conn.Close()
	log.Info().Msg("connected, waiting for events")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatal().Err(err).Msg("connection closed")
		}
		fmt.Println(string(msg))
	}
}

func dialEvents(ctx context.Context, c *apiClient) (*websocket.Conn, *http.Response, error) {
	wsURL, err := websocketURL(c.baseURL, "/ws", c.token)
	if err != nil {
		return nil, nil, err
	}
	return websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("json")
	}
	fmt.Println(string(b))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printUsage() {
	fmt.Println("moviehub [-api URL] [-token FILE] <command> <subcommand> [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout|me")
	fmt.Println("  banned list|add|remove")
	fmt.Println("  local list|add|delete")
	fmt.Println("  users promote|demote -id USER_ID")
	fmt.Println("  discover movie|tv")
	fmt.Println("  watch lists")
}
