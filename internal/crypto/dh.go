package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

// Group names understood by GroupByName.
const (
	GroupMODP2048 = "modp2048"
	GroupX25519   = "x25519"
	GroupCustom   = "custom"
)

var (
	// ErrInvalidElement is returned when a peer-supplied value is not a
	// usable element of the group.
	ErrInvalidElement = errors.New("invalid group element")
	// ErrInvalidParameters is returned when DHParameters fail validation.
	ErrInvalidParameters = errors.New("invalid dh parameters")
)

// Group is a Diffie-Hellman group in which a private exponent can be combined
// with an arbitrary element.
type Group interface {
	// Name identifies the group in configuration and logs.
	Name() string
	// GenerateKeyPair returns a fresh private exponent and its public value.
	GenerateKeyPair() (domaintypes.DHKeyPair, error)
	// Combine raises value to the private exponent. value may be the public
	// value of another peer or an element already combined by other peers.
	Combine(private, value []byte) ([]byte, error)
}

// rfc3526Prime2048 is the 2048-bit MODP group from RFC 3526, section 3.
const rfc3526Prime2048 = "" +
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9" +
	"DE2BCBF6955817183995497CEA956AE515D2261898FA0510" +
	"15728E5A8AACAA68FFFFFFFFFFFFFFFF"

const (
	minPrimeBits    = 256
	minExponentBits = 160
)

// DHParameters are the finite-field group parameters every participant of a
// session must share.
type DHParameters struct {
	Prime        *big.Int
	Generator    *big.Int
	ExponentBits int
}

// DefaultDHParameters returns the RFC 3526 2048-bit group with generator 2
// and 2048-bit private exponents.
func DefaultDHParameters() DHParameters {
	p, _ := new(big.Int).SetString(rfc3526Prime2048, 16)
	return DHParameters{
		Prime:        p,
		Generator:    big.NewInt(2),
		ExponentBits: 2048,
	}
}

// ParseDHParameters builds parameters from hex-encoded prime and generator.
func ParseDHParameters(primeHex, generatorHex string, exponentBits int) (DHParameters, error) {
	p, ok := new(big.Int).SetString(primeHex, 16)
	if !ok {
		return DHParameters{}, fmt.Errorf("%w: prime is not hex", ErrInvalidParameters)
	}
	g, ok := new(big.Int).SetString(generatorHex, 16)
	if !ok {
		return DHParameters{}, fmt.Errorf("%w: generator is not hex", ErrInvalidParameters)
	}
	params := DHParameters{Prime: p, Generator: g, ExponentBits: exponentBits}
	return params, params.Validate()
}

// Validate checks that the parameters describe a usable group.
func (p DHParameters) Validate() error {
	if p.Prime == nil || p.Generator == nil {
		return fmt.Errorf("%w: prime and generator are required", ErrInvalidParameters)
	}
	if p.Prime.BitLen() < minPrimeBits {
		return fmt.Errorf("%w: prime has %d bits, want at least %d",
			ErrInvalidParameters, p.Prime.BitLen(), minPrimeBits)
	}
	if !p.Prime.ProbablyPrime(20) {
		return fmt.Errorf("%w: modulus is not prime", ErrInvalidParameters)
	}
	pMinus1 := new(big.Int).Sub(p.Prime, big.NewInt(1))
	if p.Generator.Cmp(big.NewInt(1)) <= 0 || p.Generator.Cmp(pMinus1) >= 0 {
		return fmt.Errorf("%w: generator out of range", ErrInvalidParameters)
	}
	if p.ExponentBits < minExponentBits {
		return fmt.Errorf("%w: exponent has %d bits, want at least %d",
			ErrInvalidParameters, p.ExponentBits, minExponentBits)
	}
	return nil
}

// Equal reports whether two parameter sets describe the same group.
func (p DHParameters) Equal(o DHParameters) bool {
	return p.Prime.Cmp(o.Prime) == 0 &&
		p.Generator.Cmp(o.Generator) == 0 &&
		p.ExponentBits == o.ExponentBits
}

// modpGroup is finite-field Diffie-Hellman modulo a prime.
type modpGroup struct {
	name    string
	params  DHParameters
	size    int
	pMinus1 *big.Int
	random  io.Reader
}

// NewMODPGroup returns a finite-field group over params.
func NewMODPGroup(params DHParameters) (Group, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return newMODPGroup(GroupCustom, params), nil
}

func newMODPGroup(name string, params DHParameters) *modpGroup {
	return &modpGroup{
		name:    name,
		params:  params,
		size:    (params.Prime.BitLen() + 7) / 8,
		pMinus1: new(big.Int).Sub(params.Prime, big.NewInt(1)),
		random:  rand.Reader,
	}
}

func (g *modpGroup) Name() string { return g.name }

// GenerateKeyPair draws x uniformly from [2, min(2^ExponentBits, p-1)) and
// returns (x, g^x mod p).
func (g *modpGroup) GenerateKeyPair() (domaintypes.DHKeyPair, error) {
	upper := new(big.Int).Lsh(big.NewInt(1), uint(g.params.ExponentBits))
	if upper.Cmp(g.pMinus1) > 0 {
		upper.Set(g.pMinus1)
	}
	upper.Sub(upper, big.NewInt(2))

	x, err := rand.Int(g.random, upper)
	if err != nil {
		return domaintypes.DHKeyPair{}, fmt.Errorf("draw exponent: %w", err)
	}
	x.Add(x, big.NewInt(2))

	y := new(big.Int).Exp(g.params.Generator, x, g.params.Prime)
	return domaintypes.DHKeyPair{
		Private: x.FillBytes(make([]byte, g.size)),
		Public:  y.FillBytes(make([]byte, g.size)),
	}, nil
}

// Combine returns value^private mod p. value must lie in (1, p-1).
func (g *modpGroup) Combine(private, value []byte) ([]byte, error) {
	if len(value) != g.size {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidElement, g.size, len(value))
	}
	y := new(big.Int).SetBytes(value)
	if y.Cmp(big.NewInt(1)) <= 0 || y.Cmp(g.pMinus1) >= 0 {
		return nil, fmt.Errorf("%w: value out of range", ErrInvalidElement)
	}
	x := new(big.Int).SetBytes(private)
	if x.Sign() == 0 {
		return nil, fmt.Errorf("%w: empty exponent", ErrInvalidElement)
	}
	out := new(big.Int).Exp(y, x, g.params.Prime)
	if out.Cmp(big.NewInt(1)) <= 0 || out.Cmp(g.pMinus1) >= 0 {
		return nil, fmt.Errorf("%w: degenerate result", ErrInvalidElement)
	}
	return out.FillBytes(make([]byte, g.size)), nil
}

// GroupByName resolves a configured group. params is only consulted for
// GroupCustom.
func GroupByName(name string, params *DHParameters) (Group, error) {
	switch name {
	case "", GroupMODP2048:
		return newMODPGroup(GroupMODP2048, DefaultDHParameters()), nil
	case GroupX25519:
		return NewX25519Group(), nil
	case GroupCustom:
		if params == nil {
			return nil, fmt.Errorf("%w: custom group needs parameters", ErrInvalidParameters)
		}
		return NewMODPGroup(*params)
	}
	return nil, fmt.Errorf("unknown dh group %q", name)
}
