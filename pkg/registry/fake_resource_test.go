package registry

import (
	"context"

	"github.com/SashankSharma/iotivity/pkg/transport"
)

// fakeResource is a minimal transport.Resource stand-in for tests.
type fakeResource struct {
	uri        string
	host       string
	sid        string
	types      []string
	interfaces []string
	observable bool
}

func (f *fakeResource) URI() string                { return f.uri }
func (f *fakeResource) Host() string                { return f.host }
func (f *fakeResource) SID() string                 { return f.sid }
func (f *fakeResource) ResourceTypes() []string      { return f.types }
func (f *fakeResource) ResourceInterfaces() []string { return f.interfaces }
func (f *fakeResource) IsObservable() bool           { return f.observable }

func (f *fakeResource) Get(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	cb(transport.OperationResult{Code: transport.ResultOK})
	return nil
}

func (f *fakeResource) Post(ctx context.Context, rep transport.Representation, query map[string]string, cb transport.OperationCallback) error {
	cb(transport.OperationResult{Code: transport.ResultOK})
	return nil
}

func (f *fakeResource) Delete(ctx context.Context, cb transport.OperationCallback) error {
	cb(transport.OperationResult{Code: transport.ResultResourceDeleted})
	return nil
}

func (f *fakeResource) Observe(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	return nil
}

func (f *fakeResource) CancelObserve(ctx context.Context) error { return nil }

var _ transport.Resource = (*fakeResource)(nil)
