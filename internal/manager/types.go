package manager

import (
	"errors"
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Kind names the structure a record was hashed as.
type Kind string

const (
	KindLimitOrder      Kind = "limitOrder"
	KindMultiLimitOrder Kind = "multiLimitOrder"
	KindTypedData       Kind = "typedData"
)

// Record is the outcome of one hash request. OracleHash and Match are only
// set when the digest was checked against the router.
type Record struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	PrimaryType string          `json:"primaryType"`
	OrderHash   ethcommon.Hash  `json:"orderHash"`
	Verified    bool            `json:"verified"`
	OracleHash  *ethcommon.Hash `json:"oracleHash,omitempty"`
	Match       *bool           `json:"match,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrNoOracle       = errors.New("no router oracle configured")
)

// OracleError wraps a failed router call.
type OracleError struct {
	Kind Kind
	Err  error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("router call for %s failed: %v", e.Kind, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }
