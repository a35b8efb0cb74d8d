// Package db provides the SQLite-backed state store using GORM.
package db

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scopevm/vm/core"
	"github.com/scopevm/vm/state"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	defaultDBPath = "./state.db"
)

// DBContract represents a contract's stored metadata
type DBContract struct {
	gorm.Model
	Name  string  `gorm:"column:name;not null;unique;index;size:255"`
	Owner *string `gorm:"column:owner;index;size:255"`
}

// TableName specifies the table name for DBContract
func (DBContract) TableName() string {
	return "contracts"
}

// DBContractField represents one keyed state entry of a contract
type DBContractField struct {
	gorm.Model
	Contract string `gorm:"column:contract;not null;index;size:255"`
	Key      string `gorm:"column:field_key;not null;index;size:255"`
	Value    []byte `gorm:"column:field_value;type:blob;not null"`
}

// TableName specifies the table name for DBContractField
func (DBContractField) TableName() string {
	return "contract_fields"
}

// DBBalance represents an account balance
type DBBalance struct {
	Address string `gorm:"column:address;primaryKey;size:255"`
	Amount  uint64 `gorm:"column:balance;not null;default:0"`
}

// TableName specifies the table name for DBBalance
func (DBBalance) TableName() string {
	return "balances"
}

// DBEvent represents a contract event in the database
type DBEvent struct {
	gorm.Model
	Contract  string `gorm:"column:contract;not null;index;size:255"`
	EventName string `gorm:"column:event_name;not null;index;size:255"`
	KeyValues []byte `gorm:"column:key_values;type:blob;not null"` // JSON encoded key-value pairs
}

// TableName specifies the table name for DBEvent
func (DBEvent) TableName() string {
	return "events"
}

// Store implements the state.Store interface using SQLite with GORM
type Store struct {
	db *gorm.DB
}

func init() {
	state.Register(state.DBStoreType, NewStore)
}

// NewStore creates a new SQLite-backed state store using GORM
func NewStore(params map[string]any) state.Store {
	if params == nil {
		params = make(map[string]any)
	}
	dbPath := defaultDBPath
	if path, ok := params["db_path"].(string); ok && path != "" {
		dbPath = path
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		panic(fmt.Errorf("failed to create db directory: %v", err))
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		panic(fmt.Errorf("failed to open database: %v", err))
	}

	s := &Store{db: db}
	s.initDB()
	return s
}

func (s *Store) initDB() {
	// Auto migrate the schemas with indexes
	err := s.db.AutoMigrate(
		&DBContract{},
		&DBContractField{},
		&DBBalance{},
		&DBEvent{},
	)
	if err != nil {
		panic(fmt.Errorf("failed to migrate database: %v", err))
	}
}

// GetOwner implements state.Store
func (s *Store) GetOwner(contract core.Identity) (*core.Identity, error) {
	var row DBContract
	result := s.db.Where("name = ?", contract.String()).First(&row)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get contract: %v", result.Error)
	}
	if row.Owner == nil {
		return nil, nil
	}
	owner := core.Identity(*row.Owner)
	return &owner, nil
}

// SetOwner implements state.Store
func (s *Store) SetOwner(contract core.Identity, owner *core.Identity) error {
	var value *string
	if owner != nil {
		str := owner.String()
		value = &str
	}

	var row DBContract
	result := s.db.Where("name = ?", contract.String()).First(&row)
	if result.Error == gorm.ErrRecordNotFound {
		row = DBContract{Name: contract.String(), Owner: value}
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create contract: %v", err)
		}
		return nil
	}
	if result.Error != nil {
		return fmt.Errorf("failed to get contract: %v", result.Error)
	}

	if err := s.db.Model(&DBContract{}).Where("name = ?", contract.String()).
		Update("owner", value).Error; err != nil {
		return fmt.Errorf("failed to update owner: %v", err)
	}
	return nil
}

// GetField implements state.Store
func (s *Store) GetField(contract core.Identity, key string) ([]byte, error) {
	var field DBContractField
	result := s.db.Where("contract = ? AND field_key = ?", contract.String(), key).First(&field)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get field: %v", result.Error)
	}
	return field.Value, nil
}

// SetField implements state.Store
func (s *Store) SetField(contract core.Identity, key string, value []byte) error {
	result := s.db.Where("contract = ? AND field_key = ?", contract.String(), key).
		Assign(DBContractField{Value: value}).
		FirstOrCreate(&DBContractField{
			Contract: contract.String(),
			Key:      key,
			Value:    value,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update field: %v", result.Error)
	}
	return nil
}

// Balance implements state.Store
func (s *Store) Balance(addr core.Identity) uint64 {
	var balance DBBalance
	result := s.db.Where("address = ?", addr.String()).First(&balance)
	if result.Error == gorm.ErrRecordNotFound {
		return 0
	}
	if result.Error != nil {
		panic(fmt.Errorf("failed to get balance: %v", result.Error))
	}
	return balance.Amount
}

// Transfer implements state.Store
func (s *Store) Transfer(from, to core.Identity, amount uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		// Get sender balance
		var fromBalance DBBalance
		result := tx.Where("address = ?", from.String()).First(&fromBalance)
		if result.Error == gorm.ErrRecordNotFound {
			// If sender doesn't exist, they have 0 balance
			return fmt.Errorf("insufficient balance")
		} else if result.Error != nil {
			return fmt.Errorf("failed to get sender balance: %v", result.Error)
		}

		// Check if sender has sufficient balance
		if fromBalance.Amount < amount {
			return fmt.Errorf("insufficient balance")
		}

		// Update sender balance
		if err := tx.Model(&DBBalance{}).Where("address = ?", from.String()).
			Update("balance", fromBalance.Amount-amount).Error; err != nil {
			return fmt.Errorf("failed to update sender balance: %v", err)
		}

		// Get and update recipient balance
		var toBalance DBBalance
		result = tx.Where("address = ?", to.String()).First(&toBalance)
		if result.Error == gorm.ErrRecordNotFound {
			// Create recipient balance
			toBalance = DBBalance{
				Address: to.String(),
				Amount:  amount,
			}
			if err := tx.Create(&toBalance).Error; err != nil {
				return fmt.Errorf("failed to create recipient balance: %v", err)
			}
		} else if result.Error != nil {
			return fmt.Errorf("failed to get recipient balance: %v", result.Error)
		} else {
			// Update recipient balance
			if err := tx.Model(&DBBalance{}).Where("address = ?", to.String()).
				Update("balance", toBalance.Amount+amount).Error; err != nil {
				return fmt.Errorf("failed to update recipient balance: %v", err)
			}
		}

		return nil
	})
}

// Credit implements state.Store
func (s *Store) Credit(addr core.Identity, amount uint64) error {
	var balance DBBalance
	result := s.db.Where("address = ?", addr.String()).First(&balance)
	if result.Error == gorm.ErrRecordNotFound {
		balance = DBBalance{Address: addr.String(), Amount: amount}
		if err := s.db.Create(&balance).Error; err != nil {
			return fmt.Errorf("failed to create balance: %v", err)
		}
		return nil
	}
	if result.Error != nil {
		return fmt.Errorf("failed to get balance: %v", result.Error)
	}
	if err := s.db.Model(&DBBalance{}).Where("address = ?", addr.String()).
		Update("balance", balance.Amount+amount).Error; err != nil {
		return fmt.Errorf("failed to update balance: %v", err)
	}
	return nil
}

// Log implements state.Store
func (s *Store) Log(contract core.Identity, event string, keyValues ...any) {
	data, err := json.Marshal(keyValues)
	if err != nil {
		slog.Error("failed to marshal event data", "error", err)
		return
	}

	row := &DBEvent{
		Contract:  contract.String(),
		EventName: event,
		KeyValues: data,
	}
	if err := s.db.Create(row).Error; err != nil {
		slog.Error("failed to save event", "error", err)
		return
	}

	params := []any{
		"contract", contract,
		"event", event,
	}
	params = append(params, keyValues...)
	slog.Info("contract event", params...)
}
