//go:build integration

package testutils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medusa-ctf/medusa-backend/app"
)

// Client drives the HTTP API of a running App.
type Client struct {
	t      *testing.T
	server *httptest.Server
	App    *app.App
}

// Do sends body as JSON and decodes the response into out when non-nil.
func (c *Client) Do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.server.Client().Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 500 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type loginResponse struct {
	Token string `json:"token"`
}

// AdminToken logs in as the operator.
func (c *Client) AdminToken() string {
	c.t.Helper()
	var resp loginResponse
	if status := c.Do(http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"username": AdminUsername,
		"password": AdminPassword,
	}, &resp); status != http.StatusOK {
		c.t.Fatalf("admin login: status %d", status)
	}
	return resp.Token
}

// TeamToken logs team in for round.
func (c *Client) TeamToken(team TeamFixture, round int) string {
	c.t.Helper()
	var resp loginResponse
	if status := c.Do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"teamCode":   team.Code,
		"accessCode": team.AccessCode,
		"round":      round,
	}, &resp); status != http.StatusOK {
		c.t.Fatalf("team login %s: status %d", team.Code, status)
	}
	return resp.Token
}

// RegisterTeam creates team through the admin API.
func (c *Client) RegisterTeam(adminToken string, team TeamFixture) {
	c.t.Helper()
	if status := c.Do(http.MethodPost, "/api/admin/teams/", adminToken, map[string]string{
		"code":        team.Code,
		"name":        team.Name,
		"institution": team.Institution,
		"accessCode":  team.AccessCode,
	}, nil); status != http.StatusCreated {
		c.t.Fatalf("register team %s: status %d", team.Code, status)
	}
}
