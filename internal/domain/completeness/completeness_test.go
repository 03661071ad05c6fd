package completeness_test

import (
	"testing"

	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/failure"
	"github.com/stretchr/testify/require"
)

func cellCulture() *rdmp.Version {
	return &rdmp.Version{
		ID:         "v1",
		VersionInt: 1,
		State:      rdmp.StateActive,
		Fields: schema.Fields{
			{Key: "cell_line", Type: schema.TypeText, Required: true},
			{Key: "note", Type: schema.TypeText},
		},
	}
}

func TestEvaluate_RequiredFieldFilledCompletes(t *testing.T) {
	active := cellCulture()
	values := map[string]schema.Value{}

	res, err := completeness.Evaluate(values, active)
	require.NoError(t, err)
	require.False(t, res.IsComplete)
	require.Equal(t, []string{"cell_line"}, res.MissingFields)
	require.Equal(t, 1, res.TotalRequired)
	require.Equal(t, 0, res.TotalFilled)

	values["cell_line"] = schema.Text("HEK293")
	res, err = completeness.Evaluate(values, active)
	require.NoError(t, err)
	require.True(t, res.IsComplete)
	require.Empty(t, res.MissingFields)
	require.Equal(t, 1, res.TotalFilled)
}

func TestEvaluate_NoActiveVersionIsNotEvaluable(t *testing.T) {
	_, err := completeness.Evaluate(map[string]schema.Value{"cell_line": schema.Text("HEK293")}, nil)
	require.ErrorIs(t, err, completeness.ErrNoActiveSchema)
	require.ErrorIs(t, err, failure.ErrNoActiveSchema)

	report := completeness.Assess(nil, nil)
	require.Equal(t, completeness.StatusNotEvaluable, report.Status)
	require.Nil(t, report.Result)
}

func TestEvaluate_ZeroIsFilledEmptyIsNot(t *testing.T) {
	active := &rdmp.Version{Fields: schema.Fields{
		{Key: "od600", Type: schema.TypeNumber, Required: true},
		{Key: "cell_line", Type: schema.TypeText, Required: true},
		{Key: "treatment", Type: schema.TypeCategorical, Required: true, AllowedValues: []string{"control"}},
	}}
	res, err := completeness.Evaluate(map[string]schema.Value{
		"od600":     schema.Number(0),
		"cell_line": schema.Text(""),
		"treatment": {},
	}, active)
	require.NoError(t, err)
	require.Equal(t, []string{"cell_line", "treatment"}, res.MissingFields)
	require.Equal(t, 3, res.TotalRequired)
	require.Equal(t, 1, res.TotalFilled)
}

func TestEvaluate_DeterministicAndMonotone(t *testing.T) {
	active := &rdmp.Version{Fields: schema.Fields{
		{Key: "a", Type: schema.TypeText, Required: true},
		{Key: "b", Type: schema.TypeText, Required: true},
		{Key: "c", Type: schema.TypeText, Required: true},
		{Key: "d", Type: schema.TypeText},
	}}
	values := map[string]schema.Value{"d": schema.Text("optional")}

	first, err := completeness.Evaluate(values, active)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := completeness.Evaluate(values, active)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	require.Equal(t, []string{"a", "b", "c"}, first.MissingFields)

	values["b"] = schema.Text("filled")
	after, err := completeness.Evaluate(values, active)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, after.MissingFields)
	require.Equal(t, first.TotalFilled+1, after.TotalFilled)
}

func TestAssess_Statuses(t *testing.T) {
	active := cellCulture()
	require.Equal(t, completeness.StatusIncomplete, completeness.Assess(nil, active).Status)
	report := completeness.Assess(map[string]schema.Value{"cell_line": schema.Text("HeLa")}, active)
	require.Equal(t, completeness.StatusComplete, report.Status)
	require.Equal(t, "v1", report.Result.VersionID)
}
