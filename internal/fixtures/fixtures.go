// Package fixtures holds the seed data used when neither the remote API nor
// the local store can answer.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/amirasaad/paydesk/pkg/domain/bank"
	"github.com/amirasaad/paydesk/pkg/domain/transaction"
	"github.com/amirasaad/paydesk/pkg/domain/transfer"
	"github.com/amirasaad/paydesk/pkg/domain/user"
)

//go:embed data/*.json
var data embed.FS

// Load decodes the embedded fixture name, or the file at path when path is
// not empty. Every call returns fresh values.
func Load[T any](name, path string) ([]T, error) {
	var (
		raw []byte
		err error
	)
	if path != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = data.ReadFile("data/" + name + ".json")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", name, err)
	}
	return out, nil
}

func must[T any](name string) []T {
	out, err := Load[T](name, "")
	if err != nil {
		panic(err)
	}
	return out
}

func Transactions() []transaction.Transaction { return must[transaction.Transaction]("transactions") }
func Transfers() []transfer.Transfer          { return must[transfer.Transfer]("transfers") }
func RegularUsers() []user.User               { return must[user.User]("users") }
func Admins() []user.Admin                    { return must[user.Admin]("admins") }
func Banks() []bank.Bank                      { return must[bank.Bank]("banks") }
