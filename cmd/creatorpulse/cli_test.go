// Package main tests document the expected behavior of the creatorpulse CLI.
//
// These are BLACK BOX tests - they test the CLI by executing the binary
// and checking stdout/stderr output.
//
// External dependencies mocked:
// - Reddit via REDDIT_BASE_URL pointing at an httptest server
// - .env lookup via running every command in a temp directory
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var binaryPath string

// TestMain builds the binary once before running tests.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "creatorpulse-test")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(dir, "creatorpulse")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = "."
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// runCLI executes the CLI binary with given stdin, environment and arguments.
func runCLI(t *testing.T, stdin string, env map[string]string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "PLATFORM_RPS=100", "LOG_LEVEL=error")
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdin = strings.NewReader(stdin)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run command: %v", err)
	}

	return outBuf.String(), errBuf.String(), exitCode
}

// fakeReddit serves one post per path: "/r/good/..." has comments,
// anything under "/r/gone/" is a 404.
func fakeReddit(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/r/gone/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `[
			{"kind":"Listing","data":{"children":[{"kind":"t3","data":{"title":"Launch day thread"}}]}},
			{"kind":"Listing","data":{"children":[
				{"kind":"t1","data":{"body":"I love this, amazing work!"}},
				{"kind":"t1","data":{"body":"This is great"}},
				{"kind":"t1","data":{"body":"[deleted]"}},
				{"kind":"more","data":{}}
			]}}
		]`)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, _ := runCLI(t, "", nil, "--help")
	output := strings.ToLower(stdout)

	for _, want := range []string{"creatorpulse", "usage", "analyze", "fetch", "creator", "serve", "config"} {
		if !strings.Contains(output, want) {
			t.Errorf("help should contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	stdout, _, _ := runCLI(t, "", nil, "--version")

	if !strings.Contains(stdout, "creatorpulse version") {
		t.Errorf("version should show creatorpulse and version, got:\n%s", stdout)
	}
}

func TestAnalyzeCommand_ReadsStdin(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "I love this!\n\n   \nThis is terrible, I hate it.\n", nil, "analyze", "--title", "Pasted")

	if exitCode != 0 {
		t.Fatalf("analyze should succeed, got exit code %d: %s", exitCode, stderr)
	}
	for _, want := range []string{"Pasted", "2 comments", "50.0% positive", "50.0% negative"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output should contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "Great work, keep it up!\n", nil, "analyze", "--json")

	if exitCode != 0 {
		t.Fatalf("analyze --json should succeed, got exit code %d: %s", exitCode, stderr)
	}
	var body struct {
		Title   string `json:"title"`
		Results struct {
			Positive []string `json:"positive"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(stdout), &body); err != nil {
		t.Fatalf("output should be JSON: %v\n%s", err, stdout)
	}
	if body.Title != "Untitled Analysis" {
		t.Errorf("title should default to Untitled Analysis, got %q", body.Title)
	}
	if len(body.Results.Positive) != 1 || body.Results.Positive[0] != "Great work, keep it up!" {
		t.Errorf("positive bucket should keep the original text, got %v", body.Results.Positive)
	}
}

func TestAnalyzeCommand_RejectsEmptyInput(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "\n  \n", nil, "analyze")

	if exitCode == 0 {
		t.Error("should fail without comments")
	}
	if !strings.Contains(stderr, "no comments") {
		t.Errorf("error should mention missing comments, got:\n%s", stderr)
	}
}

func TestFetchCommand_RequiresURL(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "", nil, "fetch")

	if exitCode == 0 {
		t.Error("should fail without a URL")
	}
	if !strings.Contains(stderr, "arg") {
		t.Errorf("error should mention the missing argument, got:\n%s", stderr)
	}
}

func TestFetchCommand_RejectsUnsupportedPlatform(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "", nil, "fetch", "https://example.com/video/1")

	if exitCode == 0 {
		t.Error("should fail for an unsupported platform")
	}
	if !strings.Contains(stderr, "Currently supporting Reddit, YouTube, and Instagram") {
		t.Errorf("error should list supported platforms, got:\n%s", stderr)
	}
}

func TestFetchCommand_ClassifiesRedditPost(t *testing.T) {
	server := fakeReddit(t)
	env := map[string]string{"REDDIT_BASE_URL": server.URL}

	stdout, stderr, exitCode := runCLI(t, "", env, "fetch", "https://www.reddit.com/r/good/comments/abc/launch/")

	if exitCode != 0 {
		t.Fatalf("fetch should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "Launch day thread") {
		t.Errorf("output should show the post title, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "2 comments") {
		t.Errorf("output should skip deleted comments, got:\n%s", stdout)
	}
}

func TestCreatorCommand_RequiresSources(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "", nil, "creator", "Some Creator")

	if exitCode == 0 {
		t.Error("should fail without any source")
	}
	if !strings.Contains(stderr, "--url") {
		t.Errorf("error should explain how to add sources, got:\n%s", stderr)
	}
}

func TestCreatorCommand_ReportsPartialFailure(t *testing.T) {
	server := fakeReddit(t)
	env := map[string]string{"REDDIT_BASE_URL": server.URL}

	stdout, stderr, exitCode := runCLI(t, "Not my thing\nmeh\n", env, "creator", "Some Creator",
		"--url", "https://www.reddit.com/r/good/comments/abc/launch/",
		"--url", "https://www.reddit.com/r/gone/comments/def/removed/",
		"--manual", "tiktok:Pasted:-",
	)

	if exitCode != 0 {
		t.Fatalf("creator should succeed when one source works, got exit code %d: %s", exitCode, stderr)
	}
	for _, want := range []string{"Some Creator", "Launch day thread", "Pasted (tiktok)", "Error fetching https://www.reddit.com/r/gone/comments/def/removed/", "4 comments"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report should contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestCreatorCommand_FailsWithoutUsableData(t *testing.T) {
	server := fakeReddit(t)
	env := map[string]string{"REDDIT_BASE_URL": server.URL}

	_, stderr, exitCode := runCLI(t, "", env, "creator", "Some Creator",
		"--url", "https://www.reddit.com/r/gone/comments/def/removed/",
		"--url", "https://example.com/nope",
	)

	if exitCode == 0 {
		t.Error("should fail when no source yields comments")
	}
	for _, want := range []string{"no usable data", "Error fetching https://www.reddit.com/r/gone", "Error fetching https://example.com/nope"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr should contain %q, got:\n%s", want, stderr)
		}
	}
}

func TestCreatorCommand_ReadsRequestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "request.yaml")
	request := "name: File Creator\nmanual:\n  - platform: youtube\n    title: Pasted\n    text: |\n      Absolutely fantastic content!\n      Waste of time.\n"
	if err := os.WriteFile(path, []byte(request), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, exitCode := runCLI(t, "", nil, "creator", "--file", path, "--json")

	if exitCode != 0 {
		t.Fatalf("creator --file should succeed, got exit code %d: %s", exitCode, stderr)
	}
	var report struct {
		CreatorName string `json:"creator_name"`
		Stats       struct {
			TotalCount        int                       `json:"total_count"`
			PlatformBreakdown map[string]map[string]int `json:"platform_breakdown"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("output should be JSON: %v\n%s", err, stdout)
	}
	if report.CreatorName != "File Creator" {
		t.Errorf("creator name should come from the file, got %q", report.CreatorName)
	}
	if report.Stats.TotalCount != 2 || report.Stats.PlatformBreakdown["youtube"]["total"] != 2 {
		t.Errorf("manual youtube entry should count toward youtube, got %+v", report.Stats)
	}
}

func TestConfigCommand_HidesSecrets(t *testing.T) {
	env := map[string]string{"YOUTUBE_API_KEY": "AIza-very-secret"}

	stdout, _, exitCode := runCLI(t, "", env, "config")

	if exitCode != 0 {
		t.Fatalf("config should succeed, got exit code %d", exitCode)
	}
	if !strings.Contains(stdout, "YOUTUBE_API_KEY=(set)") {
		t.Errorf("config should show the key as set, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "AIza-very-secret") {
		t.Error("config should never print secrets")
	}
	if !strings.Contains(stdout, "SESSION_BACKEND=memory") {
		t.Errorf("config should show defaults, got:\n%s", stdout)
	}
}

func TestConfigCommand_RejectsInvalidConfig(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "", map[string]string{"SESSION_BACKEND": "redis"}, "config")

	if exitCode == 0 {
		t.Error("should fail with invalid configuration")
	}
	if !strings.Contains(stderr, "REDIS_URL is required") {
		t.Errorf("error should name the missing setting, got:\n%s", stderr)
	}
}
