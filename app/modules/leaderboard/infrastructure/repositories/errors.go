package leaderboarddb

import "errors"

// ErrNotFound indicates the requested category or challenge does not exist.
var ErrNotFound = errors.New("leaderboard subject not found")
