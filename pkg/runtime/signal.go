package runtime

// NewTypeErrorValue, NewReferenceErrorValue, NewRangeErrorValue, and
// NewSyntaxErrorValue are small bridges so pkg/runtime can signal a
// specific ECMAScript error subtype (illegal operation, Proxy invariant
// violation, non-configurable reconfiguration, TDZ access, ...) without
// importing pkg/errors, which would create a cycle through pkg/source.
// pkg/intrinsics and pkg/interpreter recognize the RuntimeSignal sentinel
// (array.go) and translate it into a catchable instance of the named
// constructor at the boundary where a Realm is available.
func NewTypeErrorValue(msg string) error { return &RuntimeSignal{Kind: "TypeError", Msg: msg} }

func NewReferenceErrorValue(msg string) error { return &RuntimeSignal{Kind: "ReferenceError", Msg: msg} }

func NewRangeErrorValue(msg string) error { return &RuntimeSignal{Kind: "RangeError", Msg: msg} }

func NewSyntaxErrorValue(msg string) error { return &RuntimeSignal{Kind: "SyntaxError", Msg: msg} }
