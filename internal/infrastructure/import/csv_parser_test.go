package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("Valid UTF-8 CSV", func(t *testing.T) {
		csv := "first_name,last_name,city\nAlice,Nguyen,New York\nBob,Reyes,Boston"
		parser, err := NewCSVParser(strings.NewReader(csv))

		require.NoError(t, err)
		require.NotNil(t, parser)
	})

	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		// UTF-8 BOM: 0xEF, 0xBB, 0xBF
		csv := "\xEF\xBB\xBFfirst_name,last_name\nAlice,Nguyen"
		parser, err := NewCSVParser(strings.NewReader(csv))

		require.NoError(t, err)
		require.NotNil(t, parser)

		err = parser.ParseHeader()
		require.NoError(t, err)

		// Header should not include BOM
		headers := parser.Headers()
		assert.Equal(t, "first_name", headers[0])
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))

		assert.Error(t, err)
		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		csv := "first_name;last_name;city\nAlice;Nguyen;NYC"
		parser, err := NewCSVParser(strings.NewReader(csv), WithDelimiter(';'))

		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		headers := parser.Headers()
		assert.Equal(t, []string{"first_name", "last_name", "city"}, headers)
	})
}

func TestParseHeader(t *testing.T) {
	t.Run("Valid header", func(t *testing.T) {
		csv := "last_name,email,company\nNguyen,alice@example.com,Initech"
		parser, _ := NewCSVParser(strings.NewReader(csv))

		err := parser.ParseHeader()

		require.NoError(t, err)
		assert.Equal(t, []string{"last_name", "email", "company"}, parser.Headers())
		assert.Equal(t, map[string]int{"last_name": 0, "email": 1, "company": 2}, parser.HeaderMap())
	})

	t.Run("Header with spaces trimmed", func(t *testing.T) {
		csv := "  last_name  ,  email  ,  company  \nNguyen,alice@example.com,Initech"
		parser, _ := NewCSVParser(strings.NewReader(csv))

		err := parser.ParseHeader()

		require.NoError(t, err)
		assert.Equal(t, []string{"last_name", "email", "company"}, parser.Headers())
	})

	t.Run("HasHeader check", func(t *testing.T) {
		csv := "last_name,email,company\nNguyen,alice@example.com,Initech"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		assert.True(t, parser.HasHeader("last_name"))
		assert.True(t, parser.HasHeader("email"))
		assert.False(t, parser.HasHeader("notes"))
	})

	t.Run("ValidateHeaders finds missing", func(t *testing.T) {
		csv := "last_name,email\nNguyen,alice@example.com"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		missing := parser.ValidateHeaders([]string{"last_name", "email", "phone", "company"})
		assert.ElementsMatch(t, []string{"phone", "company"}, missing)
	})
}

func TestReadRow(t *testing.T) {
	t.Run("Read single row", func(t *testing.T) {
		csv := "last_name,email,phone\nNguyen,alice@example.com,555-0100"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row, err := parser.ReadRow()

		require.NoError(t, err)
		assert.Equal(t, 2, row.LineNumber)
		assert.Equal(t, "Nguyen", row.Get("last_name"))
		assert.Equal(t, "alice@example.com", row.Get("email"))
		assert.Equal(t, "555-0100", row.Get("phone"))
	})

	t.Run("Row with missing columns", func(t *testing.T) {
		csv := "last_name,email,phone,company\nNguyen,alice@example.com"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row, err := parser.ReadRow()

		require.NoError(t, err)
		assert.Equal(t, "Nguyen", row.Get("last_name"))
		assert.Equal(t, "alice@example.com", row.Get("email"))
		assert.Equal(t, "", row.Get("phone"))
		assert.Equal(t, "", row.Get("company"))
	})

	t.Run("GetOrDefault", func(t *testing.T) {
		csv := "last_name,email,phone\nNguyen,alice@example.com,"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row, _ := parser.ReadRow()

		assert.Equal(t, "Nguyen", row.GetOrDefault("last_name", "default"))
		assert.Equal(t, "N/A", row.GetOrDefault("phone", "N/A"))
		assert.Equal(t, "none", row.GetOrDefault("missing", "none"))
	})

	t.Run("IsEmpty row", func(t *testing.T) {
		csv := "last_name,email\n,,\nNguyen,alice@example.com"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row1, _ := parser.ReadRow()
		assert.True(t, row1.IsEmpty())

		row2, _ := parser.ReadRow()
		assert.False(t, row2.IsEmpty())
	})

	t.Run("EOF after last row", func(t *testing.T) {
		csv := "last_name,email\nNguyen,alice@example.com"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		_, err := parser.ReadRow()
		require.NoError(t, err)

		_, err = parser.ReadRow()
		assert.Equal(t, io.EOF, err)
	})
}

func TestReadAllRows(t *testing.T) {
	t.Run("Read all rows", func(t *testing.T) {
		csv := "last_name,email\nNguyen,alice@example.com\nReyes,bob@example.com\nKato,carol@example.com"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		rows, err := parser.ReadAllRows()

		require.NoError(t, err)
		assert.Len(t, rows, 3)
		assert.Equal(t, "Nguyen", rows[0].Get("last_name"))
		assert.Equal(t, "Reyes", rows[1].Get("last_name"))
		assert.Equal(t, "Kato", rows[2].Get("last_name"))
	})

	t.Run("Skip empty rows", func(t *testing.T) {
		csv := "last_name,email\nNguyen,alice@example.com\n,,\n,,\nReyes,bob@example.com"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		rows, err := parser.ReadAllRows()

		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("TotalRows count", func(t *testing.T) {
		csv := "last_name,email\nNguyen,alice@example.com\nReyes,bob@example.com\nKato,carol@example.com"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		parser.ReadAllRows()

		assert.Equal(t, 3, parser.TotalRows())
	})
}

func TestParseFromBytes(t *testing.T) {
	t.Run("Parse from byte slice", func(t *testing.T) {
		data := []byte("last_name,email\nNguyen,alice@example.com")
		parser, err := ParseFromBytes(data)

		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		row, _ := parser.ReadRow()
		assert.Equal(t, "Nguyen", row.Get("last_name"))
	})
}

func TestQuotedFields(t *testing.T) {
	t.Run("Fields with quotes", func(t *testing.T) {
		csv := `last_name,company,notes
Nguyen,"Initech","A promising lead"
Reyes,"Globex","Referred, warm intro"
Kato,"Soylent ""Corp""","Asked for ""discount"""
`
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row1, _ := parser.ReadRow()
		assert.Equal(t, "Initech", row1.Get("company"))
		assert.Equal(t, "A promising lead", row1.Get("notes"))

		row2, _ := parser.ReadRow()
		assert.Equal(t, "Referred, warm intro", row2.Get("notes"))

		row3, _ := parser.ReadRow()
		assert.Equal(t, `Soylent "Corp"`, row3.Get("company"))
		assert.Equal(t, `Asked for "discount"`, row3.Get("notes"))
	})
}

func TestMultilineFields(t *testing.T) {
	t.Run("Fields with newlines", func(t *testing.T) {
		csv := "last_name,email,notes\nNguyen,alice@example.com,\"Line 1\nLine 2\nLine 3\""
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row, _ := parser.ReadRow()
		assert.Equal(t, "Line 1\nLine 2\nLine 3", row.Get("notes"))
	})
}

func TestGetColumnIndex(t *testing.T) {
	csv := "last_name,email,phone\nNguyen,alice@example.com,555-0100"
	parser, _ := NewCSVParser(strings.NewReader(csv))
	parser.ParseHeader()

	idx, ok := parser.GetColumnIndex("email")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = parser.GetColumnIndex("missing")
	assert.False(t, ok)
}
