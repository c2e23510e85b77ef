package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Dan9191/loan-reminders/internal/models"
)

// localUser is the single user a snapshot belongs to
const localUser int64 = 1

var errNotFound = errors.New("not found")

// Snapshot is the on-disk input of the offline tool
type Snapshot struct {
	Loans           []models.Loan           `yaml:"loans"`
	Transactions    []models.Transaction    `yaml:"transactions"`
	CustomReminders []models.CustomReminder `yaml:"custom_reminders,omitempty"`
}

// FileStore serves one user's data from a YAML snapshot and keeps paid marks
// in a separate YAML state file
type FileStore struct {
	snapshotPath string
	statePath    string
	snapshot     Snapshot
}

// OpenFileStore reads the snapshot. The state file is read lazily and may
// not exist yet.
func OpenFileStore(snapshotPath, statePath string) (*FileStore, error) {
	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", snapshotPath, err)
	}
	return &FileStore{snapshotPath: snapshotPath, statePath: statePath, snapshot: snap}, nil
}

func (f *FileStore) GetLoans(_ context.Context, _ int64) ([]models.Loan, error) {
	loans := make([]models.Loan, len(f.snapshot.Loans))
	for i, loan := range f.snapshot.Loans {
		loan.UserID = localUser
		loans[i] = loan
	}
	return loans, nil
}

func (f *FileStore) GetLoan(ctx context.Context, userID int64, loanID string) (*models.Loan, error) {
	loans, err := f.GetLoans(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range loans {
		if loans[i].ID == loanID {
			return &loans[i], nil
		}
	}
	return nil, fmt.Errorf("loan %s: %w", loanID, errNotFound)
}

func (f *FileStore) GetTransactions(_ context.Context, _ int64) ([]models.Transaction, error) {
	return f.snapshot.Transactions, nil
}

func (f *FileStore) LoadPaid(_ context.Context, _ int64) (map[string]models.PaidRecord, error) {
	data, err := os.ReadFile(f.statePath)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]models.PaidRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading paid state: %w", err)
	}
	records := map[string]models.PaidRecord{}
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing paid state %s: %w", f.statePath, err)
	}
	return records, nil
}

func (f *FileStore) SavePaid(_ context.Context, _ int64, records map[string]models.PaidRecord) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding paid state: %w", err)
	}
	if err := os.WriteFile(f.statePath, data, 0o644); err != nil {
		return fmt.Errorf("writing paid state: %w", err)
	}
	return nil
}

func (f *FileStore) UsersWithPaidRecords(ctx context.Context) ([]int64, error) {
	records, err := f.LoadPaid(ctx, localUser)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return []int64{localUser}, nil
}

func (f *FileStore) GetCustomReminders(_ context.Context, _ int64) ([]models.CustomReminder, error) {
	return f.snapshot.CustomReminders, nil
}

func (f *FileStore) CreateCustomReminder(_ context.Context, c *models.CustomReminder) error {
	f.snapshot.CustomReminders = append(f.snapshot.CustomReminders, *c)
	sort.SliceStable(f.snapshot.CustomReminders, func(i, j int) bool {
		return f.snapshot.CustomReminders[i].DueDate.Before(f.snapshot.CustomReminders[j].DueDate)
	})
	return f.saveSnapshot()
}

func (f *FileStore) DeleteCustomReminder(_ context.Context, _ int64, id string) error {
	kept := f.snapshot.CustomReminders[:0]
	found := false
	for _, c := range f.snapshot.CustomReminders {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return fmt.Errorf("custom reminder %s: %w", id, errNotFound)
	}
	f.snapshot.CustomReminders = kept
	return f.saveSnapshot()
}

func (f *FileStore) saveSnapshot() error {
	data, err := yaml.Marshal(f.snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(f.snapshotPath, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
