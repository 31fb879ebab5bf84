// Package monitor validates composed gateway payloads against JSON schemas
// before they leave the process.
package monitor

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Contract names of the embedded schemas.
const (
	ContractPayment      = "payment"
	ContractPaymentOrder = "paymentorder"
	ContractTransaction  = "transaction"
	ContractAbort        = "abort"
	ContractConsumer     = "consumer"
)

//go:embed schemas/*.json
var embedded embed.FS

// ContractMonitor holds compiled schemas keyed by contract name.
type ContractMonitor struct {
	schemas map[string]*gojsonschema.Schema
}

// NewContractMonitor compiles the given raw schemas.
func NewContractMonitor(schemas map[string][]byte) (*ContractMonitor, error) {
	cm := &ContractMonitor{schemas: make(map[string]*gojsonschema.Schema, len(schemas))}
	for name, raw := range schemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("error loading or compiling schema %s: %w", name, err)
		}
		cm.schemas[name] = schema
	}
	return cm, nil
}

// Default returns a monitor for every embedded contract.
func Default() (*ContractMonitor, error) {
	entries, err := embedded.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schemas: %w", err)
	}
	raw := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := embedded.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", e.Name(), err)
		}
		raw[strings.TrimSuffix(e.Name(), ".json")] = data
	}
	return NewContractMonitor(raw)
}

// Contracts lists the known contract names, sorted.
func (cm *ContractMonitor) Contracts() []string {
	names := make([]string, 0, len(cm.schemas))
	for name := range cm.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks body against the named contract. It returns true if valid,
// or false and the list of violations. Unknown contracts are an error.
func (cm *ContractMonitor) Validate(contract string, body []byte) (bool, []string, error) {
	schema, ok := cm.schemas[contract]
	if !ok {
		return false, nil, fmt.Errorf("unknown contract %q", contract)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return false, nil, fmt.Errorf("error during validation: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}

	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return false, violations, nil
}

// FormatErrors formats validation errors into a single string.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}
