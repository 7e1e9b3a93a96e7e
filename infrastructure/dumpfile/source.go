// Package dumpfile reads getter records saved as JSON
package dumpfile

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/platform/getter"
)

// Source serves the records of one dump file
type Source struct {
	path string
	log  *logrus.Entry
}

// NewSource creates a record source for the dump at path
func NewSource(cfg entities.SwitchConfig) *Source {
	return &Source{
		path: cfg.RecordsFile,
		log:  logrus.WithFields(logrus.Fields{"device": cfg.DeviceID(), "source": "file"}),
	}
}

// FetchRecords opens and decodes the dump
func (s *Source) FetchRecords(ctx context.Context) ([]entities.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records file: %w", err)
	}
	defer f.Close()

	records, err := getter.DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	s.log.Debugf("Loaded %d records from %s", len(records), s.path)
	return records, nil
}
