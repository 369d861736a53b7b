package tricrypto_simulator

import (
	"errors"
	"fmt"
)

var (
	OVERFLOW         = errors.New("OVERFLOW")
	UNDERFLOW        = errors.New("UNDERFLOW")
	DIVISION_BY_ZERO = errors.New("DIVISION_BY_ZERO")
	DID_NOT_CONVERGE = errors.New("did not converge")

	// UNSAFE_REGION is the expected rejection for inputs outside the band the
	// solvers are proven on. Callers treat it as a normal failed trade.
	UNSAFE_REGION = errors.New("unsafe region")
	UNSAFE_A      = fmt.Errorf("unsafe values A: %w", UNSAFE_REGION)
	UNSAFE_GAMMA  = fmt.Errorf("unsafe values gamma: %w", UNSAFE_REGION)
	UNSAFE_D      = fmt.Errorf("unsafe values D: %w", UNSAFE_REGION)
	UNSAFE_X      = fmt.Errorf("unsafe values x[i]: %w", UNSAFE_REGION)
	UNSAFE_Y      = fmt.Errorf("unsafe value for y: %w", UNSAFE_REGION)

	INVALID_INDEX       = errors.New("invalid coin index")
	LOSS                = errors.New("Loss")
	SLIPPAGE            = errors.New("Slippage")
	INSUFFICIENT_OUTPUT = errors.New("trade produces no output")
	ALREADY_INITIALIZED = errors.New("Already initialized!")
	NOT_INITIALIZED     = errors.New("pool not initialized")
)
