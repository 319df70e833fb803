// Package hclfunc provides the functions available inside celebstyle.hcl.
package hclfunc

import (
	"os"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// EnvFunc returns env(name), the value of an environment variable or ""
// when it is unset.
//
//	key_id = env("RAZORPAY_KEY_ID")
func EnvFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "varname", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(os.Getenv(args[0].AsString())), nil
		},
	})
}

// EnvOrFunc returns env_or(name, fallback), which uses fallback when the
// variable is unset or empty.
//
//	api_url = env_or("CELEBSTYLE_API_URL", "http://localhost:5000")
func EnvOrFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "varname", Type: cty.String},
			{Name: "fallback", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			if v := os.Getenv(args[0].AsString()); v != "" {
				return cty.StringVal(v), nil
			}
			return args[1], nil
		},
	})
}

// LowerFunc returns lower(str).
func LowerFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "str", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(strings.ToLower(args[0].AsString())), nil
		},
	})
}

// ConcatFunc joins any number of strings, skipping nulls.
//
//	prefix = concat("cstyle.", env("STAGE"))
func ConcatFunc() function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{
			Name:      "values",
			Type:      cty.String,
			AllowNull: true,
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			var b strings.Builder
			for _, arg := range args {
				if arg.IsNull() {
					continue
				}
				b.WriteString(arg.AsString())
			}
			return cty.StringVal(b.String()), nil
		},
	})
}

// Functions returns every function by its HCL name.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"env":    EnvFunc(),
		"env_or": EnvOrFunc(),
		"lower":  LowerFunc(),
		"concat": ConcatFunc(),
	}
}
