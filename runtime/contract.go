package runtime

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scopevm/vm/core"
)

// Function is the signature every exported contract function implements.
type Function func(ctx core.Context, args map[string]any) (any, error)

// contract is a deployed contract: either an explicit function table or a
// Go value whose exported methods with the Function signature are the
// contract's exported functions.
type contract struct {
	name core.Identity
	fns  map[core.FunctionName]Function
	impl reflect.Value
}

var functionType = reflect.TypeOf(Function(nil))

func newContract(name core.Identity, impl any) (*contract, error) {
	switch v := impl.(type) {
	case nil:
		return nil, fmt.Errorf("contract %s has no implementation", name)
	case map[core.FunctionName]Function:
		if len(v) == 0 {
			return nil, fmt.Errorf("contract %s exports no functions", name)
		}
		return &contract{name: name, fns: v}, nil
	default:
		c := &contract{name: name, impl: reflect.ValueOf(impl)}
		if len(c.functions()) == 0 {
			return nil, fmt.Errorf("contract %s exports no functions", name)
		}
		return c, nil
	}
}

// functions lists the wire names of all exported functions, sorted.
func (c *contract) functions() []core.FunctionName {
	var names []core.FunctionName
	if c.fns != nil {
		for fn := range c.fns {
			names = append(names, fn)
		}
	} else {
		t := c.impl.Type()
		for i := 0; i < t.NumMethod(); i++ {
			if c.impl.Method(i).Type().ConvertibleTo(functionType) {
				names = append(names, wireName(t.Method(i).Name))
			}
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// function resolves a wire-level function name to its implementation.
func (c *contract) function(fn core.FunctionName) (Function, error) {
	if c.fns != nil {
		f, ok := c.fns[fn]
		if !ok {
			return nil, fmt.Errorf("function %s not found on contract %s", fn, c.name)
		}
		return f, nil
	}
	m := c.impl.MethodByName(methodName(fn))
	if !m.IsValid() {
		return nil, fmt.Errorf("function %s not found on contract %s", fn, c.name)
	}
	f, ok := m.Interface().(func(core.Context, map[string]any) (any, error))
	if !ok {
		return nil, fmt.Errorf("function %s not found on contract %s", fn, c.name)
	}
	return Function(f), nil
}

// methodName maps a wire-level function name to the Go method implementing
// it: change_ownership becomes ChangeOwnership.
func methodName(fn core.FunctionName) string {
	title := cases.Title(language.English)
	parts := strings.Split(string(fn), "_")
	for i, part := range parts {
		parts[i] = title.String(part)
	}
	return strings.Join(parts, "")
}

// wireName is the inverse mapping, used when listing exported functions.
func wireName(method string) core.FunctionName {
	var sb strings.Builder
	for i, r := range method {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return core.FunctionName(sb.String())
}
