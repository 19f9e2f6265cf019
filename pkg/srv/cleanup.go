package srv

import "context"

// closer adapts a resource with a Close-style func to Service so it is
// released in reverse start order with everything else.
type closer struct {
	close func() error
}

func NewCleanup(fn func() error) Service {
	return &closer{close: fn}
}

func (c *closer) Start(context.Context) error {
	return nil
}

func (c *closer) Shutdown(context.Context) error {
	if c.close == nil {
		return nil
	}
	return c.close()
}
