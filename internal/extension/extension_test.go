package extension_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oszuidwest/minnal/internal/extension"
	"github.com/oszuidwest/minnal/internal/types"
	"github.com/oszuidwest/minnal/internal/version"
)

func setVersion(t *testing.T, v string) {
	t.Helper()

	old := version.Version
	version.Version = v
	t.Cleanup(func() { version.Version = old })
}

func TestDefaultRegistryVersion(t *testing.T) {
	setVersion(t, "0.4.0")

	reg := extension.Default()

	got, err := reg.InvokeText(types.VersionFunction)
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", got)

	again, err := reg.InvokeText(types.VersionFunction)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestVersionFunctionDefinition(t *testing.T) {
	t.Parallel()

	fn := extension.VersionFunction()
	assert.Equal(t, "minnal_version", fn.Name)
	assert.Equal(t, 0, fn.Arity())
	assert.Equal(t, "minnal_version()", fn.Signature())
	assert.Equal(t, types.TypeText, fn.Result)
	assert.Equal(t, types.VolatilityImmutable, fn.Volatility)
	assert.True(t, fn.ParallelSafe)
}

func TestInvokeRejectsArguments(t *testing.T) {
	t.Parallel()

	reg := extension.Default()

	_, err := reg.Invoke(types.VersionFunction, "extra")

	var argErr *types.ArgumentCountError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, 0, argErr.Expected)
	assert.Equal(t, 1, argErr.Got)
}

func TestInvokeUnknownFunction(t *testing.T) {
	t.Parallel()

	_, err := extension.Default().Invoke("minnal_missing")

	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	body := func([]any) (any, error) { return "x", nil }

	tcs := map[string]struct {
		fn      extension.Function
		wantErr bool
	}{
		"valid":        {fn: extension.Function{Name: "f_ok", Body: body}},
		"invalid name": {fn: extension.Function{Name: "f-bad", Body: body}, wantErr: true},
		"empty name":   {fn: extension.Function{Body: body}, wantErr: true},
		"no body":      {fn: extension.Function{Name: "f_nobody"}, wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := extension.NewRegistry().Register(tc.fn)
			if tc.wantErr {
				var ve *types.ValidationError
				require.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	reg := extension.Default()
	err := reg.Register(extension.VersionFunction())
	require.Error(t, err)
	assert.Len(t, reg.All(), 1)
}

func TestAllSorted(t *testing.T) {
	t.Parallel()

	reg := extension.NewRegistry()
	body := func([]any) (any, error) { return nil, nil }
	require.NoError(t, reg.Register(extension.Function{Name: "b_fn", Body: body}))
	require.NoError(t, reg.Register(extension.Function{Name: "a_fn", Body: body}))

	fns := reg.All()
	require.Len(t, fns, 2)
	assert.Equal(t, "a_fn", fns[0].Name)
	assert.Equal(t, "b_fn", fns[1].Name)
}

func TestInvokeBodyError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	reg := extension.NewRegistry()
	require.NoError(t, reg.Register(extension.Function{
		Name: "f_err",
		Body: func([]any) (any, error) { return nil, cause },
	}))

	_, err := reg.Invoke("f_err")
	require.ErrorIs(t, err, cause)
}

func TestInvokeTextRejectsNonText(t *testing.T) {
	t.Parallel()

	reg := extension.NewRegistry()
	require.NoError(t, reg.Register(extension.Function{
		Name: "f_int",
		Body: func([]any) (any, error) { return 42, nil },
	}))

	_, err := reg.InvokeText("f_int")
	require.Error(t, err)
}
