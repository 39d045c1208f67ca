// ABOUTME: Readiness report for credentials and ledger storage.
package report

import (
	"context"

	"github.com/harperreed/wellness/internal/storage"
)

// Status describes whether the service can fetch and store today's record.
type Status struct {
	CredentialsConfigured bool   `json:"credentialsConfigured"`
	CredentialsValid      bool   `json:"credentialsValid"`
	StorageConfigured     bool   `json:"storageConfigured"`
	StorageReachable      bool   `json:"storageReachable"`
	StorageError          string `json:"storageError,omitempty"`
	Ledger                string `json:"ledger,omitempty"`
	Objects               int    `json:"objects"`
	Rows                  int    `json:"rows"`
	LastDate              string `json:"lastDate,omitempty"`
}

// Healthy reports whether both credentials and storage are usable.
func (s Status) Healthy() bool {
	return s.CredentialsValid && s.StorageReachable
}

// Status probes credentials and the ledger store.
func (a *Assembler) Status(ctx context.Context) Status {
	st := Status{
		CredentialsConfigured: a.credentials != nil,
		StorageConfigured:     a.store != nil,
	}
	if a.credentials != nil {
		st.CredentialsValid = a.credentials.Valid()
	}
	if a.store == nil {
		st.StorageError = ErrStorageDisabled.Error()
		return st
	}

	st.Ledger = a.store.Name()
	objects, err := a.store.List(ctx)
	if err != nil {
		st.StorageError = err.Error()
		return st
	}
	st.StorageReachable = true
	st.Objects = len(objects)
	if _, ok := storage.Newest(objects); !ok {
		return st
	}

	records := a.store.ReadAll(ctx)
	st.Rows = len(records)
	if len(records) > 0 {
		st.LastDate = records[len(records)-1].Date
	}
	return st
}
