package predictions

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBody() map[string]any {
	return map[string]any{
		"age": 63.0, "sex": 1.0, "cp": 3.0, "trestbps": 145.0, "chol": 233.0, "fbs": 1.0,
		"restecg": 0.0, "thalach": 150.0, "exang": 0.0, "oldpeak": 2.3, "slope": 0.0, "ca": 0.0, "thal": 1.0,
	}
}

func TestParseInput_Valid(t *testing.T) {
	body := validBody()
	body["user_id"] = "u-1"
	body["note"] = "kept verbatim"

	in, err := ParseInput(body)
	require.NoError(t, err)
	assert.Equal(t, "u-1", in.UserID)
	assert.Len(t, in.Values, 13)
	assert.Equal(t, 2.3, in.Values["oldpeak"])
	assert.Equal(t, "kept verbatim", in.Raw["note"])
}

func TestParseInput_DefaultUser(t *testing.T) {
	in, err := ParseInput(validBody())
	require.NoError(t, err)
	assert.Equal(t, DefaultUserID, in.UserID)

	body := validBody()
	body["user_id"] = ""
	in, err = ParseInput(body)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserID, in.UserID)
}

func TestParseInput_Empty(t *testing.T) {
	for _, body := range []map[string]any{nil, {}} {
		_, err := ParseInput(body)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "No data provided", ve.Error())
	}
}

func TestParseInput_MissingListsExactFields(t *testing.T) {
	body := validBody()
	delete(body, "thal")
	delete(body, "age")
	delete(body, "exang")
	body["chol"] = "not checked before missing"

	_, err := ParseInput(body)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"age", "exang", "thal"}, ve.Fields)
	assert.Equal(t, "Missing features: age, exang, thal", ve.Error())
}

func TestParseInput_NullCountsAsMissing(t *testing.T) {
	body := validBody()
	body["ca"] = nil

	_, err := ParseInput(body)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"ca"}, ve.Fields)
}

func TestParseInput_NonNumeric(t *testing.T) {
	body := validBody()
	body["chol"] = "233"
	body["fbs"] = true

	_, err := ParseInput(body)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Non-numeric features", ve.Message)
	assert.Equal(t, []string{"chol", "fbs"}, ve.Fields)
}

func TestParseInput_JSONNumber(t *testing.T) {
	body := validBody()
	body["age"] = json.Number("57")

	in, err := ParseInput(body)
	require.NoError(t, err)
	assert.Equal(t, 57.0, in.Values["age"])
}

func TestParseInput_NonPositiveAge(t *testing.T) {
	for _, age := range []float64{0, -1} {
		body := validBody()
		body["age"] = age
		_, err := ParseInput(body)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Error(), "age must be greater than 0")
	}
}

func TestParseInput_UserIDType(t *testing.T) {
	body := validBody()
	body["user_id"] = 42.0

	_, err := ParseInput(body)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "user_id must be a string", ve.Error())
}
