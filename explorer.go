package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var errNotDirectory = errors.New("not a directory")

// Explorer answers list, tree, stats and find calls. It holds no per-call
// state: every call resolves its own root and builds its own ignore rules,
// so one Explorer can serve concurrent calls.
type Explorer struct {
	limits Limits
	log    *logrus.Entry
}

// NewExplorer returns an Explorer bounded by limits. A nil log uses the
// standard logrus logger.
func NewExplorer(limits Limits, log *logrus.Entry) *Explorer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Explorer{limits: limits, log: log}
}

func (e *Explorer) callLog(op, root string) *logrus.Entry {
	return e.log.WithFields(logrus.Fields{
		"op":   op,
		"path": root,
		"call": uuid.NewString(),
	})
}

// resolveRoot makes path absolute and checks that it is a readable directory.
func resolveRoot(op, path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newIOError(op, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", newIOError(op, abs, err)
	}
	if !info.IsDir() {
		return "", newIOError(op, abs, fmt.Errorf("%w: %s", errNotDirectory, abs))
	}
	return abs, nil
}
