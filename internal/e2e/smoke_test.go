//go:build e2e

package e2e

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	baseURL       string
	signingSecret string
)

func TestMain(m *testing.M) {
	baseURL = os.Getenv("KONVEYOR_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	signingSecret = os.Getenv("KONVEYOR_SLACK_SIGNING_SECRET")

	ready := false
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				ready = true
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	if !ready {
		fmt.Fprintf(os.Stderr, "server at %s not ready after 30s\n", baseURL)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// messageRequest is the payload sent to the REST gateway.
type messageRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Content  string `json:"content"`
}

// messageResponse is the outbound message returned by the REST gateway.
type messageResponse struct {
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	ReplyTo   string `json:"reply_to,omitempty"`
}

// sendMessage POSTs a chat message through the REST gateway and returns the response content.
func sendMessage(t *testing.T, content string) string {
	t.Helper()

	body, err := json.Marshal(messageRequest{UserID: "smoke-test", UserName: "smokebot", Content: content})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(baseURL+"/gateway/rest/message", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /gateway/rest/message: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var msg messageResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal response: %v (body: %s)", err, string(raw))
	}
	return msg.Content
}

func slackSignature(ts, body string) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func postSlackEvent(t *testing.T, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/gateway/slack/events", strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if signingSecret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set("X-Slack-Request-Timestamp", ts)
		req.Header.Set("X-Slack-Signature", slackSignature(ts, body))
	}

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("POST /gateway/slack/events: %v", err)
	}
	return resp
}

// Scenario 1: URL verification challenge echo.
func TestSlackURLVerification(t *testing.T) {
	body := `{"type":"url_verification","challenge":"abc123"}`
	resp := postSlackEvent(t, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Challenge string `json:"challenge"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Challenge != "abc123" {
		t.Errorf("expected challenge echo \"abc123\", got %q", out.Challenge)
	}
}

// Scenario 2: duplicate delivery of the same event is accepted twice at the
// transport level (both responses 200) while the deduplicator drops the
// second invocation before it reaches the orchestrator; the drop itself is
// exercised directly in internal/gateway/dedup_test.go.
func TestSlackDuplicateEventAccepted(t *testing.T) {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	body := fmt.Sprintf(`{"type":"event_callback","event":{"type":"message","channel":"C1","user":"U1","text":"hi there","ts":"%s"}}`, ts)

	for i := 0; i < 2; i++ {
		resp := postSlackEvent(t, body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}
}

// Scenario 3: a first-contact greeting addressed by name gets a reply
// containing that name.
func TestGreetingRepliesWithName(t *testing.T) {
	reply := sendMessage(t, "hi Alice")
	if !strings.Contains(reply, "Alice") {
		t.Errorf("expected reply to contain %q, got: %s", "Alice", reply)
	}
}

// Scenario 4: a knowledge question produces a substantive reply. The
// citation-numbering and "Sources:" section contract is exercised directly
// against stubbed results in internal/rag/format_test.go, and the Markdown
// block-splitter's round-trip property in internal/format/blocks_test.go;
// a live smoke run has no control over what, if anything, is indexed.
func TestKnowledgeQuestionAnswered(t *testing.T) {
	reply := sendMessage(t, "What is the onboarding process?")
	if len(reply) == 0 {
		t.Error("expected a non-empty reply to a knowledge question")
	}
}

// Scenario 5: follow-up query enhancement is a pure function of prior
// queries and is exercised directly in internal/rag/preprocess_test.go
// (TestEnhanceQueryWithContextAddsNewTerms). Here we only confirm a
// follow-up turn still produces a reply.
func TestFollowUpQuestionAnswered(t *testing.T) {
	sendMessage(t, "Tell me about onboarding")
	reply := sendMessage(t, "What about IT setup?")
	if len(reply) == 0 {
		t.Error("expected a non-empty reply to a follow-up question")
	}
}

// Scenario 6: completion retry-until-success is exercised directly against a
// stub transport in internal/provider/openai_test.go
// (TestChatRetriesOnTransientFailure); a live smoke run cannot inject
// transient provider failures.
func TestSlashHelp(t *testing.T) {
	reply := sendMessage(t, "/help")
	if len(reply) == 0 {
		t.Error("expected a non-empty response for /help")
	}
	t.Logf("reply: %.200s", reply)
}

func TestSlashSkills(t *testing.T) {
	reply := sendMessage(t, "/skills")
	if len(reply) == 0 {
		t.Error("expected a non-empty response for /skills")
	}
	t.Logf("reply: %.200s", reply)
}

func TestSlashStatus(t *testing.T) {
	reply := sendMessage(t, "/status")
	if len(reply) == 0 {
		t.Error("expected a non-empty response for /status")
	}
	t.Logf("reply: %.200s", reply)
}

func TestSearchCommand(t *testing.T) {
	reply := sendMessage(t, "/search onboarding")
	lower := strings.ToLower(reply)
	if strings.Contains(lower, "error") && !strings.Contains(lower, "no results") {
		t.Errorf("unexpected error in response: %s", reply)
	}
	t.Logf("reply: %.200s", reply)
}
