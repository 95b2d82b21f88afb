// Command seeder fills a running server with fake users, posts and comments
// through the public API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"social-backend/internal/shared/logx"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/urfave/cli/v2"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	base string
	http *http.Client
}

func (c *client) call(ctx context.Context, method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	if !env.Success {
		return fmt.Errorf("%s %s: %s (%s)", method, path, env.Message, resp.Status)
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

type seededUser struct {
	Phone string
	Token string
	Posts []int64
}

func main() {
	app := &cli.App{
		Name:  "seeder",
		Usage: "populate the API with fake data",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Value: "http://localhost:8080", EnvVars: []string{"SEEDER_BASE_URL"}},
			&cli.IntFlag{Name: "users", Value: 10},
			&cli.IntFlag{Name: "posts", Value: 3, Usage: "posts per user"},
			&cli.IntFlag{Name: "comments", Value: 5, Usage: "comments per user on other users' posts"},
			&cli.Int64Flag{Name: "seed", Value: 0, Usage: "random seed, 0 for time based"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("seeder failed", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logx.New(logx.Config{Level: "info", Format: "text"})
	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)
	cl := &client{base: c.String("base-url"), http: &http.Client{Timeout: 10 * time.Second}}
	ctx := c.Context

	var users []*seededUser
	for i := 0; i < c.Int("users"); i++ {
		u, err := seedUser(ctx, cl, faker)
		if err != nil {
			slog.Warn("register user", "err", err)
			continue
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return fmt.Errorf("no users could be created at %s", cl.base)
	}

	var allPosts []int64
	for _, u := range users {
		for j := 0; j < c.Int("posts"); j++ {
			id, err := seedPost(ctx, cl, faker, u)
			if err != nil {
				slog.Warn("create post", "phone", u.Phone, "err", err)
				continue
			}
			u.Posts = append(u.Posts, id)
			allPosts = append(allPosts, id)
		}
	}

	comments := 0
	for _, u := range users {
		for j := 0; j < c.Int("comments") && len(allPosts) > 0; j++ {
			pid := allPosts[faker.Number(0, len(allPosts)-1)]
			err := cl.call(ctx, http.MethodPost, "/api/comments", u.Token,
				map[string]any{"postId": pid, "content": faker.Sentence(faker.Number(3, 15))}, nil)
			if err != nil {
				slog.Warn("create comment", "post_id", pid, "err", err)
				continue
			}
			comments++
		}
	}

	slog.Info("seeding done", "users", len(users), "posts", len(allPosts), "comments", comments)
	return nil
}

func seedUser(ctx context.Context, cl *client, f *gofakeit.Faker) (*seededUser, error) {
	phone := f.Numerify("09########")
	body := map[string]any{
		"phoneNumber": phone,
		"userName":    f.Name(),
		"email":       f.Email(),
		"password":    "123456",
		"coverImage":  f.URL(),
		"biography":   "<p>" + f.Sentence(10) + "</p>",
	}
	if err := cl.call(ctx, http.MethodPost, "/api/register", "", body, nil); err != nil {
		return nil, err
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := cl.call(ctx, http.MethodPost, "/api/login", "", map[string]string{"phoneNumber": phone, "password": "123456"}, &login); err != nil {
		return nil, err
	}
	slog.Info("user seeded", "phone", phone)
	return &seededUser{Phone: phone, Token: login.Token}, nil
}

// seedPost alternates between plain posts and the post-with-comment endpoint.
func seedPost(ctx context.Context, cl *client, f *gofakeit.Faker, u *seededUser) (int64, error) {
	if f.Bool() {
		var res struct {
			PostID int64 `json:"postId"`
		}
		err := cl.call(ctx, http.MethodPost, "/api/posts/with-comment", u.Token, map[string]any{
			"postContent":    f.Paragraph(1, 2, 8, " "),
			"postImage":      f.ImageURL(640, 480),
			"commentContent": f.Sentence(6),
		}, &res)
		return res.PostID, err
	}
	var p struct {
		PostID int64 `json:"postId"`
	}
	err := cl.call(ctx, http.MethodPost, "/api/posts", u.Token, map[string]any{
		"content": f.Paragraph(1, 2, 8, " "),
	}, &p)
	return p.PostID, err
}
