package cli

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarcloud/ssd/pkg/discovery"
	"github.com/openarcloud/ssd/pkg/discovery/discoverytest"
	"github.com/openarcloud/ssd/pkg/ssr"
)

const fixtureID = "e32ca955c776ecec"

func TestLocateCommand(t *testing.T) {
	srv := discoverytest.NewServer("")
	defer srv.Close()
	srv.Seed("fi", "tok", ssr.LocalServices()...)

	stdout, _, err := execute(t, []string{"--url", srv.URL, "locate", "--country", "fi", "--h3", "8a1f05a6b6fffff"})
	require.NoError(t, err)

	var records []ssr.SSR
	decodeOutput(t, stdout, &records)
	assert.Len(t, records, 2)

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/fi/ssrs", requests[0].Path)
	assert.Equal(t, "h3Index=8a1f05a6b6fffff", requests[0].Query)
}

func TestLocateCommand_MissingParameters(t *testing.T) {
	srv := discoverytest.NewServer("")
	defer srv.Close()

	_, _, err := execute(t, []string{"--url", srv.URL, "locate", "--country", "fi"})
	assert.ErrorIs(t, err, discovery.ErrInvalidParameters)
	assert.Empty(t, srv.Requests())
}

func TestGetCommand(t *testing.T) {
	srv := discoverytest.NewServer("")
	defer srv.Close()
	srv.Seed("fi", "tok", ssr.LocalService())

	t.Run("found", func(t *testing.T) {
		stdout, _, err := execute(t, []string{"--url", srv.URL, "get", "--country", "fi", "--id", fixtureID})
		require.NoError(t, err)

		var record ssr.SSR
		decodeOutput(t, stdout, &record)
		assert.Equal(t, fixtureID, record.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, _, err := execute(t, []string{"--url", srv.URL, "get", "--country", "fi", "--id", "0000000000000000"})
		require.Error(t, err)
		assert.True(t, discovery.IsStatus(err, http.StatusNotFound))
		assert.Contains(t, err.Error(), "record not found")
	})

	t.Run("short id", func(t *testing.T) {
		_, _, err := execute(t, []string{"--url", srv.URL, "get", "--country", "fi", "--id", "abc"})
		assert.ErrorIs(t, err, discovery.ErrInvalidParameters)
	})
}

func TestMineCommand(t *testing.T) {
	srv := discoverytest.NewServer("")
	defer srv.Close()
	mine, theirs := ssr.LocalServices()[0], ssr.LocalServices()[1]
	srv.Seed("fi", "my-token", mine)
	srv.Seed("fi", "other-token", theirs)

	stdout, _, err := execute(t, []string{"--url", srv.URL, "--token", "my-token", "mine", "--country", "fi"})
	require.NoError(t, err)

	var records []ssr.SSR
	decodeOutput(t, stdout, &records)
	require.Len(t, records, 1)
	assert.Equal(t, mine.ID, records[0].ID)
	assert.Equal(t, "/fi/provider/ssrs", srv.Requests()[0].Path)
}

func TestPutCommand(t *testing.T) {
	srv := discoverytest.NewServer("")
	defer srv.Close()
	srv.Seed("fi", "tok", ssr.LocalService())

	updated := ssr.LocalService()
	updated.Provider = "renamed"
	dir := t.TempDir()
	file := writeSSR(t, dir, "updated.json", updated)

	t.Run("replaces record", func(t *testing.T) {
		stdout, _, err := execute(t, []string{"--url", srv.URL, "--token", "tok", "put", "--country", "fi", "--id", fixtureID, file})
		require.NoError(t, err)

		var resp Response
		decodeOutput(t, stdout, &resp)
		assert.Equal(t, fixtureID, resp.ID)
		assert.Equal(t, fixtureID, resp.Response)

		record, ok := srv.Record("fi", fixtureID)
		require.True(t, ok)
		assert.Equal(t, "renamed", record.Provider)
	})

	t.Run("invalid file is not sent", func(t *testing.T) {
		before := len(srv.Requests())
		invalid := writeFile(t, dir, "invalid.json", `{"id": 1}`)

		_, _, err := execute(t, []string{"--url", srv.URL, "--token", "tok", "put", "--country", "fi", "--id", fixtureID, invalid})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to parse file content: invalid.json")
		assert.Len(t, srv.Requests(), before)
	})

	t.Run("requires one file", func(t *testing.T) {
		_, _, err := execute(t, []string{"--url", srv.URL, "put", "--country", "fi", "--id", fixtureID})
		assert.EqualError(t, err, "put: exactly one SSR file is required")
	})

	t.Run("other owner", func(t *testing.T) {
		_, _, err := execute(t, []string{"--url", srv.URL, "--token", "intruder", "put", "--country", "fi", "--id", fixtureID, file})
		require.Error(t, err)
		assert.True(t, discovery.IsStatus(err, http.StatusForbidden))
	})
}

func TestDeleteCommand(t *testing.T) {
	srv := discoverytest.NewServer("")
	defer srv.Close()
	srv.Seed("fi", "tok", ssr.LocalService())

	stdout, _, err := execute(t, []string{"--url", srv.URL, "--token", "tok", "delete", "--country", "fi", "--id", fixtureID})
	require.NoError(t, err)

	var resp Response
	decodeOutput(t, stdout, &resp)
	assert.Equal(t, "deleted", resp.Response)
	assert.Zero(t, srv.Len("fi"))
}

func TestDeleteCommand_Local(t *testing.T) {
	stdout, _, err := execute(t, []string{"--local", "delete", "--country", "fi", "--id", fixtureID})
	require.NoError(t, err)

	var resp Response
	decodeOutput(t, stdout, &resp)
	assert.Equal(t, discovery.Acknowledgement, resp.Response)
}
