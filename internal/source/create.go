package source

import (
	"errors"
	"fmt"
)

// Create looks up opts["type"] in the registry, invokes the factory with
// (id, opts, d), and validates the result before handing it to the caller.
//
// Failure modes are construction-time and fatal to this call:
//   - ErrUnknownSourceType when the type name is missing or unregistered
//     (checked at lookup, never deferred to a nil factory invocation);
//   - IdentityMismatchError when the factory returns a source whose ID()
//     differs from the requested id; the instance is discarded.
//
// Create itself starts no I/O; the engine triggers Load separately. The
// returned Source's methods are ordinary method values and may be passed
// around as callbacks without further binding.
func Create(reg *Registry, id string, opts Options, d Dispatcher) (Source, error) {
	if id == "" {
		return nil, errors.New("source id is empty")
	}

	name := opts.Type()
	if name == "" {
		return nil, fmt.Errorf("%w: options have no \"type\" member", ErrUnknownSourceType)
	}

	factory, ok := reg.GetType(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, name)
	}

	s, err := factory(id, opts, d)
	if err != nil {
		return nil, fmt.Errorf("construct %s source %q: %w", name, id, err)
	}

	if s.ID() != id {
		return nil, &IdentityMismatchError{Requested: id, Returned: s.ID()}
	}

	return s, nil
}
