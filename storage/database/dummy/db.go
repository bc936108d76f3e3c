// Package dummydb implements the core repositories in memory, for tests and local runs without a database.
package dummydb

import (
	"sync"
	"time"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/evaluation"
	"github.com/trezcool/milestone/core/skill"
	"github.com/trezcool/milestone/core/user"
)

// DB guards every table with a single lock so that multi-table writes are atomic.
type DB struct {
	sync.RWMutex

	users       map[int]*user.User
	categories  map[int]*skill.Category
	questions   map[int]*skill.Question
	children    map[int]*child.Child
	assessments map[int]*assessment.Assessment
	responses   map[int]*assessment.Response
	evaluations map[int]*evaluation.Evaluation

	pks map[string]int
}

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[int]*user.User),
		categories:  make(map[int]*skill.Category),
		questions:   make(map[int]*skill.Question),
		children:    make(map[int]*child.Child),
		assessments: make(map[int]*assessment.Assessment),
		responses:   make(map[int]*assessment.Response),
		evaluations: make(map[int]*evaluation.Evaluation),
		pks:         make(map[string]int),
	}
	return db, nil
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK(table string) int {
	db.pks[table]++
	return db.pks[table]
}

// orderedLess returns the first non-zero `compare` result over `ordering`, or `tie` when all fields are equal.
func orderedLess(ordering []core.DBOrdering, compare func(field string) int, tie bool) bool {
	for _, ord := range ordering {
		if c := compare(ord.Field); c != 0 {
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
	}
	return tie
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func copyInts(s []int) []int {
	if s == nil {
		return nil
	}
	return append(make([]int, 0, len(s)), s...)
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
