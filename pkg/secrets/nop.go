package secrets

import "context"

// NopProvider always returns ErrNotFound. Useful when a provider is optional.
type NopProvider struct{}

func (NopProvider) Get(context.Context, Reference) (SecretValue, error) {
	return SecretValue{}, ErrNotFound
}
func (NopProvider) Put(context.Context, Reference, []byte) (string, error) {
	return "", ErrUnsupported
}
func (NopProvider) Delete(context.Context, Reference) error { return ErrUnsupported }
func (NopProvider) Describe(context.Context, Reference) (map[string]any, error) {
	return nil, ErrNotFound
}
