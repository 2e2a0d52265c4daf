// Package registry provides thread-safe registration and lookup of stage
// behavior factories.
//
// Stored pipeline definitions reference behaviors by name. The registry
// maps those names to factories that build behavior instances from the
// stage argument, so a definition loaded from storage can be resolved into
// runnable stage specs:
//
//	reg := registry.NewRegistry()
//	err := reg.Register(&registry.Registration{
//	    Name:        "tokenize",
//	    Description: "Splits text items into word tokens",
//	    Version:     "1.0.0",
//	    Factory: func(arg any) (fitting.Behavior, error) {
//	        return newTokenizer(arg)
//	    },
//	})
//
//	spec, err := reg.Spec("tokenize", map[string]any{"separator": " "})
//
// Factories must not perform I/O. Resolution happens during pipeline
// assembly; connections and resources belong to startup.
package registry
