//go:build js && wasm

package main

import (
	"fmt"
	"slices"
	"strings"
	"syscall/js"

	"github.com/cottand/typeck/frontend/fixture"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/internal/log"
)

func main() {
	js.Global().Set("CheckAndShowTypes", js.FuncOf(checkAndShowTypes))

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}

// checkAndShowTypes checks the YAML fixture in args[0] and prints the
// types of its bindings, or its diagnostics if there are any
func checkAndShowTypes(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "checker panicked: " + fmt.Sprint(r)
		}
	}()

	fx, err := fixture.Parse([]byte(args[0].String()), "fixture.yaml")
	if err != nil {
		return fmt.Sprintf("could not load the fixture:\n\n%s", err)
	}
	fx.Config.Logger = log.Discard
	res, err := fx.Check()
	if err != nil {
		return fmt.Sprintf("the checker encountered a failure:\n\n%s", err)
	}

	sb := strings.Builder{}
	for _, e := range res.Diagnostics.Errors() {
		sb.WriteString(fmt.Sprintf("%s: %s %s\n", fixture.Position(e.Pos()), ilerr.SeverityOf(e), ilerr.FormatWithCode(e)))
	}
	names := make([]string, 0, len(fx.Bindings))
	for name := range fx.Bindings {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if ty, ok := res.NodeTypes[fx.Bindings[name].ID()]; ok {
			sb.WriteString(fmt.Sprintf("%s: %s\n", name, ty))
		}
	}
	return sb.String()
}
