//go:build !linux

package osutil

// New only knows how to drive Linux hosts.
func New(name string, opts ...Option) (Platform, error) {
	if _, err := LookupVariant(name); err != nil && name != "" && name != VariantAuto {
		return nil, err
	}
	return nil, ErrUnsupported
}

type Option func(*optionSet)

type optionSet struct{}

func WithInterface(ifname string) Option { return func(*optionSet) {} }

func WithCommandRunner(run CommandRunner) Option { return func(*optionSet) {} }
