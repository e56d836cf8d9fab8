package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PaperPayloadKey returns the cache key for a paper with its ordered questions
func (r *CacheKeyStruct) PaperPayloadKey(paperID int64) string {
	return fmt.Sprintf("paper:%d:payload", paperID)
}

// RankingVersionKey returns the key of the counter bumped whenever a session is graded
func (r *CacheKeyStruct) RankingVersionKey() string {
	return "ranking:version"
}

// RankingKey returns the cache key for a ranking page at a given version.
// paperID 0 means all papers, limit 0 means uncapped.
func (r *CacheKeyStruct) RankingKey(version int64, paperID int64, limit int) string {
	return fmt.Sprintf("ranking:v%d:paper:%d:limit:%d", version, paperID, limit)
}

var CacheKey = NewCacheKeyStruct()
