package api

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// mustID extracts the trailing id from a /note/<id> location.
func mustID(t *testing.T, location string) int64 {
	t.Helper()
	id, err := strconv.ParseInt(strings.TrimPrefix(location, "/note/"), 10, 64)
	require.NoError(t, err)
	return id
}
