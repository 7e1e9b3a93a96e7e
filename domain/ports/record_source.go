package ports

import (
	"context"

	"github.com/carlosrabelo/macscan/domain/entities"
)

// RecordSource defines the port for structured MAC table getters
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]entities.RawRecord, error)
}
