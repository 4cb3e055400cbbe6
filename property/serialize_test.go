package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrebarritra/inviwo/errors"
)

func standardFactory(t *testing.T) *Factory {
	t.Helper()
	f := NewFactory()
	require.NoError(t, RegisterStandard(f))
	return f
}

func TestSaveElidesDefaults(t *testing.T) {
	var o Owner
	changed := NewInt("changed", "Changed", 0)
	require.NoError(t, o.AddProperty(changed, false))
	require.NoError(t, o.AddProperty(NewInt("untouched", "Untouched", 0), false))
	changed.SetValue(5)

	records, err := o.SaveRecords()
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "changed", records[0].Identifier)
	assert.Equal(t, ClassInt, records[0].Class)
}

func TestOwnedAlwaysSaved(t *testing.T) {
	var o Owner
	require.NoError(t, o.AddProperty(NewString("dynamic", "Dynamic", ""), true))

	records, err := o.SaveRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "dynamic", records[0].Identifier)
}

func TestLoadRestoresValues(t *testing.T) {
	var src Owner
	v := NewInt("count", "Count", 0)
	require.NoError(t, src.AddProperty(v, false))
	v.SetValue(3)

	records, err := src.SaveRecords()
	require.NoError(t, err)

	var dst Owner
	require.NoError(t, dst.AddProperty(NewInt("count", "Count", 0), false))

	var errs LoadErrors
	dst.LoadRecords(records, nil, standardFactory(t), &errs)

	assert.True(t, errs.Empty())
	assert.Equal(t, 3, dst.ByIdentifier("count", false).(*IntProperty).Get())
}

func TestLoadConstructsOwned(t *testing.T) {
	var src Owner
	require.NoError(t, src.AddProperty(NewString("extra", "Extra", "hello"), true))

	records, err := src.SaveRecords()
	require.NoError(t, err)

	var dst Owner
	var errs LoadErrors
	dst.LoadRecords(records, src.OwnedIdentifiers(), standardFactory(t), &errs)

	assert.True(t, errs.Empty())
	created := dst.ByIdentifier("extra", false)
	require.NotNil(t, created)
	assert.True(t, dst.IsOwned(created))
	assert.Equal(t, "hello", created.(*StringProperty).Get())
}

func TestLoadUnknownFactoryRecordedNotFatal(t *testing.T) {
	records := []Record{
		{Identifier: "mystery", Class: "org.example.UnknownProperty"},
		{Identifier: "known", Class: ClassInt, Value: []byte("7")},
	}

	var dst Owner
	require.NoError(t, dst.AddProperty(NewInt("known", "Known", 0), false))

	var errs LoadErrors
	dst.LoadRecords(records, []string{"mystery"}, standardFactory(t), &errs)

	require.Len(t, errs.Errors, 1)
	assert.ErrorIs(t, errs.Errors[0], errors.ErrUnknownFactory)
	assert.Equal(t, 7, dst.ByIdentifier("known", false).(*IntProperty).Get())
}

func TestLoadResetsAbsentDefaults(t *testing.T) {
	var dst Owner
	touched := NewInt("touched", "Touched", 0)
	require.NoError(t, dst.AddProperty(touched, false))
	touched.SetValue(9)

	var errs LoadErrors
	dst.LoadRecords(nil, nil, standardFactory(t), &errs)

	assert.True(t, errs.Empty())
	assert.Equal(t, 0, touched.Get())
}

func TestLoadRemovesAbsentOwned(t *testing.T) {
	var dst Owner
	require.NoError(t, dst.AddProperty(NewInt("dynamic", "Dynamic", 1), true))

	var errs LoadErrors
	dst.LoadRecords(nil, nil, standardFactory(t), &errs)

	assert.True(t, errs.Empty())
	assert.Nil(t, dst.ByIdentifier("dynamic", false))
}

func TestLoadReordersToSavedOrder(t *testing.T) {
	records := []Record{
		{Identifier: "b", Class: ClassInt, Value: []byte("2")},
		{Identifier: "a", Class: ClassInt, Value: []byte("1")},
	}

	var dst Owner
	require.NoError(t, dst.AddProperty(NewInt("a", "A", 0), false))
	require.NoError(t, dst.AddProperty(NewInt("b", "B", 0), false))

	var errs LoadErrors
	dst.LoadRecords(records, nil, standardFactory(t), &errs)

	assert.True(t, errs.Empty())
	assert.Equal(t, []string{"b", "a"}, identifiers(&dst))
}

func TestCompositeRoundTrip(t *testing.T) {
	camera := NewComposite("camera", "Camera")
	fov := NewFloat("fov", "Field of View", 60)
	require.NoError(t, camera.AddProperty(fov, false))
	require.NoError(t, camera.AddProperty(NewString("note", "Note", ""), true))

	var src Owner
	require.NoError(t, src.AddProperty(camera, false))
	fov.SetValue(45)
	camera.ByIdentifier("note", false).(*StringProperty).SetValue("front")

	records, err := src.SaveRecords()
	require.NoError(t, err)

	dst := NewComposite("camera", "Camera")
	require.NoError(t, dst.AddProperty(NewFloat("fov", "Field of View", 60), false))
	var dstOwner Owner
	require.NoError(t, dstOwner.AddProperty(dst, false))

	var errs LoadErrors
	dstOwner.LoadRecords(records, nil, standardFactory(t), &errs)

	assert.True(t, errs.Empty())
	assert.InDelta(t, 45, dst.ByIdentifier("fov", false).(*FloatProperty).Get(), 1e-9)
	note := dst.ByIdentifier("note", false)
	require.NotNil(t, note)
	assert.Equal(t, "front", note.(*StringProperty).Get())
	assert.True(t, dst.IsOwned(note))
}

func TestFactory(t *testing.T) {
	f := standardFactory(t)

	assert.True(t, f.Has(ClassBool))
	assert.Contains(t, f.Classes(), ClassComposite)

	p, err := f.Create(ClassFloat, "opacity")
	require.NoError(t, err)
	assert.Equal(t, "opacity", p.Identifier())

	_, err = f.Create("org.example.Missing", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownFactory)

	err = f.Register(ClassBool, func(id string) Property { return NewBool(id, id, false) })
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateIdentifier)
}

func TestClassifyRecordValueMismatch(t *testing.T) {
	records := []Record{{Identifier: "n", Class: ClassFloat, Value: []byte("1.5")}}

	var dst Owner
	require.NoError(t, dst.AddProperty(NewInt("n", "N", 0), false))

	var errs LoadErrors
	dst.LoadRecords(records, nil, standardFactory(t), &errs)

	// Class mismatch between saved record and existing member is recorded.
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, 0, dst.ByIdentifier("n", false).(*IntProperty).Get())
}
