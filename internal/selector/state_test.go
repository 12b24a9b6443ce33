package selector

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cancer-ai-portal/internal/domain"
)

func TestState_CascadeResets(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cancers := []string{"", "breast-cancer", "lung-cancer"}
	features := []string{"", "image", "gene"}
	datasets := []string{"", "k1", "k2"}

	s := NewState()
	for i := 0; i < 2000; i++ {
		switch rng.Intn(5) {
		case 0:
			s.SelectCancer(cancers[rng.Intn(len(cancers))])
			assert.Empty(t, s.Feature, "choosing a cancer must clear the feature")
			assert.Empty(t, s.DatasetKey, "choosing a cancer must clear the dataset")
		case 1:
			before := *s
			err := s.SelectFeature(features[rng.Intn(len(features))])
			if err != nil {
				assert.Equal(t, before.Cancer, s.Cancer)
				assert.Equal(t, before.Feature, s.Feature)
				assert.Equal(t, before.DatasetKey, s.DatasetKey)
			} else {
				assert.Empty(t, s.DatasetKey, "choosing a feature must clear the dataset")
			}
		case 2:
			_ = s.SelectDataset(datasets[rng.Intn(len(datasets))])
		case 3:
			_ = s.Open(domain.Fields[rng.Intn(len(domain.Fields))])
		case 4:
			_ = s.Validate()
		}

		// Downstream keys are only ever set when upstream keys are
		if s.Cancer == "" {
			require.Empty(t, s.Feature)
		}
		if s.Feature == "" {
			require.Empty(t, s.DatasetKey)
		}
		require.LessOrEqual(t, len(s.Errors), 1, "at most one field error at a time")
	}
}

func TestState_OpenFeatureWithoutCancer(t *testing.T) {
	s := NewState()

	err := s.OpenFeature()
	require.Error(t, err)

	var fe *domain.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, domain.FieldCancer, fe.Field)
	assert.Equal(t, MsgSelectCancerFirst, s.Errors[domain.FieldCancer])
	assert.True(t, s.Popup.Visible)
	assert.Equal(t, MsgSelectCancerFirst, s.Popup.Message)
	assert.Equal(t, NoneSelected, s.Stage())

	err = s.SelectFeature("image")
	require.Error(t, err)
	assert.Empty(t, s.Feature)
}

func TestState_OpenDatasetWithoutFeature(t *testing.T) {
	s := NewState()
	s.SelectCancer("breast-cancer")

	err := s.OpenDataset()
	var fe *domain.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, domain.FieldFeature, fe.Field)
	assert.Equal(t, MsgSelectFeatureFirst, s.Errors[domain.FieldFeature])

	require.Error(t, s.SelectDataset("k1"))
	assert.Empty(t, s.DatasetKey)
	assert.Equal(t, CancerChosen, s.Stage())
}

func TestState_ValidateFirstMissing(t *testing.T) {
	tests := []struct {
		name      string
		cancer    string
		feature   string
		dataset   string
		wantField domain.Field
		wantMsg   string
	}{
		{"Nothing_Selected", "", "", "", domain.FieldCancer, MsgContinueCancer},
		{"Cancer_Only", "breast-cancer", "", "", domain.FieldFeature, MsgContinueFeature},
		{"Cancer_And_Feature", "breast-cancer", "gene", "", domain.FieldDataset, MsgContinueDataset},
		{"Complete", "breast-cancer", "gene", "k2", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.SelectCancer(tt.cancer)
			if tt.feature != "" {
				require.NoError(t, s.SelectFeature(tt.feature))
			}
			if tt.dataset != "" {
				require.NoError(t, s.SelectDataset(tt.dataset))
			}

			err := s.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Empty(t, s.Errors)
				assert.False(t, s.Popup.Visible)
				assert.Equal(t, Ready, s.Stage())
				return
			}

			var fe *domain.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantField, fe.Field)
			assert.Len(t, s.Errors, 1)
			assert.Equal(t, tt.wantMsg, s.Errors[tt.wantField])

			field, ok := s.ErrorField()
			assert.True(t, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestState_ErrorsClearOnValidChange(t *testing.T) {
	s := NewState()
	require.Error(t, s.Validate())
	assert.Equal(t, MsgContinueCancer, s.Errors[domain.FieldCancer])

	s.SelectCancer("lung-cancer")
	assert.Empty(t, s.Errors[domain.FieldCancer])
	assert.False(t, s.Popup.Visible)

	require.Error(t, s.Validate())
	require.NoError(t, s.SelectFeature("image"))
	assert.Empty(t, s.Errors)
}

func TestState_DismissPopupKeepsInlineError(t *testing.T) {
	s := NewState()
	require.Error(t, s.OpenFeature())

	s.DismissPopup()
	assert.False(t, s.Popup.Visible)
	assert.Equal(t, MsgSelectCancerFirst, s.Errors[domain.FieldCancer])
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "none_selected", NoneSelected.String())
	assert.Equal(t, "ready", Ready.String())
}
