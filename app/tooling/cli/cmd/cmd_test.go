package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Commands(t *testing.T) {
	type request struct {
		method string
		path   string
		body   map[string]any
	}

	var mu sync.Mutex
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := request{method: r.Method, path: r.URL.EscapedPath()}
		json.NewDecoder(r.Body).Decode(&req.body)

		mu.Lock()
		got = req
		mu.Unlock()

		if strings.HasSuffix(r.URL.Path, "/404") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"User ID 404 not found"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	table := []struct {
		name   string
		args   []string
		method string
		path   string
		body   map[string]any
	}{
		{"chain", []string{"chain"}, http.MethodGet, "/v1/node/chain", nil},
		{"summary", []string{"summary"}, http.MethodGet, "/v1/node/chain/summary", nil},
		{"peers", []string{"peers"}, http.MethodGet, "/v1/node/peers", nil},
		{"register", []string{"peers", "register", "node:5003", "--role", "provider"}, http.MethodPost, "/v1/node/peers/register", map[string]any{"nodes": []any{"node:5003"}, "role": "provider", "is_local": false}},
		{"mine", []string{"mine"}, http.MethodPost, "/v1/node/mine", nil},
		{"sync", []string{"sync"}, http.MethodGet, "/v1/node/sync", nil},
		{"metrics", []string{"metrics"}, http.MethodGet, "/v1/node/metrics", nil},
		{"user add", []string{"user", "add", "1", "--name", "A", "--balance", "100"}, http.MethodPost, "/v1/users", map[string]any{"id": float64(1), "name": "A", "initial_balance": float64(100)}},
		{"user get", []string{"user", "get", "1"}, http.MethodGet, "/v1/users/1", nil},
		{"transfer", []string{"transfer", "1", "2", "30"}, http.MethodPost, "/v1/users/transfer", map[string]any{"from_id": float64(1), "to_id": float64(2), "amount": float64(30)}},
		{"resource update", []string{"resource", "update", "5", "Very High"}, http.MethodPost, "/v1/resources/5/Very%20High", nil},
		{"request", []string{"request", "5"}, http.MethodPost, "/v1/requests/5", nil},
	}

	t.Log("Given the need to call a node from the command line.")
	{
		for testID, tt := range table {
			tf := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen running %q.", testID, strings.Join(tt.args, " "))
				{
					mu.Lock()
					got = request{}
					mu.Unlock()

					var out bytes.Buffer
					rootCmd.SetOut(&out)
					rootCmd.SetArgs(append(tt.args, "--url", srv.URL))

					if err := rootCmd.Execute(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould run the command: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould run the command.", success, testID)

					mu.Lock()
					got := got
					mu.Unlock()

					if got.method != tt.method || got.path != tt.path {
						t.Fatalf("\t%s\tTest %d:\tShould call %s %s: got %s %s", failed, testID, tt.method, tt.path, got.method, got.path)
					}
					t.Logf("\t%s\tTest %d:\tShould call %s %s.", success, testID, tt.method, tt.path)

					if tt.body != nil {
						exp, _ := json.Marshal(tt.body)
						act, _ := json.Marshal(got.body)
						if !bytes.Equal(exp, act) {
							t.Fatalf("\t%s\tTest %d:\tShould send the document: exp %s, got %s", failed, testID, exp, act)
						}
						t.Logf("\t%s\tTest %d:\tShould send the document.", success, testID)
					}

					if !strings.Contains(out.String(), `"ok": true`) {
						t.Fatalf("\t%s\tTest %d:\tShould print the indented response: %s", failed, testID, out.String())
					}
					t.Logf("\t%s\tTest %d:\tShould print the indented response.", success, testID)
				}
			}

			t.Run(tt.name, tf)
		}

		t.Logf("\tTest %d:\tWhen the node rejects the call.", len(table))
		{
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs([]string{"user", "get", "404", "--url", srv.URL})

			if err := rootCmd.Execute(); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail the command.", failed, len(table))
			}
			t.Logf("\t%s\tTest %d:\tShould fail the command.", success, len(table))

			if !strings.Contains(out.String(), "User ID 404 not found") {
				t.Fatalf("\t%s\tTest %d:\tShould print the error document: %s", failed, len(table), out.String())
			}
			t.Logf("\t%s\tTest %d:\tShould print the error document.", success, len(table))
		}
	}
}
