// Package surface provides the equation input surfaces that feed the
// render thread through an equation.Channel.
package surface

import "context"

// Surface runs until its input ends or ctx is cancelled. Returning nil
// means the user is done and the application should close.
type Surface interface {
	Run(ctx context.Context) error
}
