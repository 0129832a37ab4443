package bunrepo

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

func withKey(key string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("key = ?", key)
	}
}

func withKeyPrefix(prefix string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if prefix == "" {
			return q.Order("key ASC")
		}
		return q.Where("key LIKE ?", prefix+"%").Order("key ASC")
	}
}
