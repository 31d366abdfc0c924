package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpoweredVote/jobmarket/internal/apitest"
)

func runCLI(t *testing.T, fake *apitest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("API_BASE_URL", fake.BaseURL())
	t.Setenv("APP_ID", "app123")
	t.Setenv("AVATAR_POLICY", "optional")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJobsCommand(t *testing.T) {
	fake := apitest.New(t)
	boss, token := fake.AddUser("boss", "pw", "Big Boss")
	fake.AddMedia(boss, "lawn.jpg", "Lawn", `{"description":"Mow the lawn","job":true}`, "app123", "app123_employer")
	fake.AddMedia(boss, "other.jpg", "Other", "not ours", "elsewhere")

	out, err := runCLI(t, fake, "jobs", "--role", "employer", "--token", token)
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Lawn", items[0]["title"])

	out, err = runCLI(t, fake, "jobs", "--role", "employer", "--token", token, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Lawn")
}

func TestJobsCommand_TokenFromEnv(t *testing.T) {
	fake := apitest.New(t)
	_, token := fake.AddUser("viewer", "pw", "Viewer")

	t.Setenv("JOBS_TOKEN", token)
	out, err := runCLI(t, fake, "jobs")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestJobsCommand_MissingToken(t *testing.T) {
	fake := apitest.New(t)
	t.Setenv("JOBS_TOKEN", "")

	_, err := runCLI(t, fake, "jobs")
	require.Error(t, err)
	assert.Zero(t, fake.CountRequests(""), "no request without a token")
}

func TestAvailableCommand(t *testing.T) {
	fake := apitest.New(t)
	fake.AddUser("taken", "pw", "Taken")

	out, err := runCLI(t, fake, "available", "taken")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"taken","available":false}`, out)

	out, err = runCLI(t, fake, "available", "free")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"free","available":true}`, out)
}

func TestCommandErrors(t *testing.T) {
	fake := apitest.New(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"available", "x", "-o", "xml"}},
		{"bad id", []string{"job", "abc", "--token", "t"}},
		{"bad role", []string{"jobs", "--role", "boss", "--token", "t"}},
		{"missing args", []string{"comments"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, fake, tt.args...)
			assert.Error(t, err)
		})
	}
}
