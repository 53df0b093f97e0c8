package swiftdsv

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name  string
	Age   int
	Email *string
}

func (p *person) FieldNames() []string {
	return []string{"name", "age", "email"}
}

func (p *person) Get(index int) *string {
	switch index {
	case 0:
		return String(p.Name)
	case 1:
		return String(strconv.Itoa(p.Age))
	default:
		return p.Email
	}
}

func (p *person) Set(index int, value *string) error {
	switch index {
	case 0:
		if value != nil {
			p.Name = *value
		}
	case 1:
		if value == nil {
			return nil
		}
		age, err := strconv.Atoi(*value)
		if err != nil {
			return err
		}
		p.Age = age
	default:
		p.Email = value
	}
	return nil
}

func newPerson() *person {
	return &person{}
}

func TestRecordHandlerLoadByHeader(t *testing.T) {
	t.Parallel()

	input := "age,name,extra\n30,Ann,x\n41,Bob\n"
	people, err := Load(strings.NewReader(input), minimalConfig(), RecordHandler[*person]{New: newPerson, Header: true})
	require.NoError(t, err)
	require.Len(t, people, 2)

	assert.Equal(t, "Ann", people[0].Name)
	assert.Equal(t, 30, people[0].Age)
	assert.Nil(t, people[0].Email)
	assert.Equal(t, "Bob", people[1].Name)
	assert.Equal(t, 41, people[1].Age)
}

func TestRecordHandlerLoadByPosition(t *testing.T) {
	t.Parallel()

	cfg := minimalConfig().WithNullString("")
	people, err := Load(strings.NewReader("Ann,30,ann@example.com\nBob,41,\n"), cfg, RecordHandler[*person]{New: newPerson})
	require.NoError(t, err)
	require.Len(t, people, 2)

	require.NotNil(t, people[0].Email)
	assert.Equal(t, "ann@example.com", *people[0].Email)
	assert.Nil(t, people[1].Email)
}

func TestRecordHandlerSetError(t *testing.T) {
	t.Parallel()

	input := "name,age\nAnn,30\nBob,old\n"
	_, err := Load(strings.NewReader(input), minimalConfig(), RecordHandler[*person]{New: newPerson, Header: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
	assert.Contains(t, err.Error(), "line 3, column 2")
}

func TestRecordHandlerRequiresConstructor(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader("a\n"), minimalConfig(), RecordHandler[*person]{})
	assert.ErrorIs(t, err, errNoConstructor)
}

func TestRecordHandlerSave(t *testing.T) {
	t.Parallel()

	people := []*person{
		{Name: "Ann", Age: 30, Email: String("ann@example.com")},
		{Name: "Smith, Bob", Age: 41},
	}
	h := RecordHandler[*person]{New: newPerson, Header: true}

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, minimalConfig(), people, h))
	assert.Equal(t, "name,age,email\nAnn,30,ann@example.com\n\"Smith, Bob\",41,\n", buf.String())

	loaded, err := Load(strings.NewReader(buf.String()), minimalConfig(), h)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Smith, Bob", loaded[1].Name)

	buf.Reset()
	require.NoError(t, Save(&buf, minimalConfig(), nil, h))
	assert.Equal(t, "name,age,email\n", buf.String())
}
