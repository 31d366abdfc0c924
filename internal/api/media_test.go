package api

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpoweredVote/jobmarket/internal/apitest"
)

func TestUpdateMedia(t *testing.T) {
	fake := apitest.New(t)
	uid, token := fake.AddUser("boss", "pw", "Boss")
	id := fake.AddMedia(uid, "job.jpg", "Old title", `{"description":"old","job":true}`)
	c := newTestClient(t, fake, AvatarRequired)
	ctx := context.Background()

	item, err := c.GetMedia(ctx, id)
	require.NoError(t, err)

	details := item.Details
	details.Description = "new & improved"
	details.Wage = "20"
	details.PayMethod = PayFixed

	_, err = c.UpdateMedia(ctx, token, id, MediaUpdate{Title: "New title", Details: details})
	require.NoError(t, err)

	stored, ok := fake.Media(id)
	require.True(t, ok)
	assert.Equal(t, "New title", stored.Title)
	assert.Equal(t, `{"description":"new & improved","job":true,"payMethod":"fixedPrice","wage":"20"}`, stored.Description)
}

func TestUpdateMedia_FailurePropagates(t *testing.T) {
	fake := apitest.New(t)
	owner, _ := fake.AddUser("owner", "pw", "Owner")
	_, intruder := fake.AddUser("intruder", "pw", "Intruder")
	id := fake.AddMedia(owner, "job.jpg", "Title", "{}")
	c := newTestClient(t, fake, AvatarRequired)

	_, err := c.UpdateMedia(context.Background(), intruder, id, MediaUpdate{Title: "mine now"})
	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)

	stored, _ := fake.Media(id)
	assert.Equal(t, "Title", stored.Title)
}

func TestDeleteMedia(t *testing.T) {
	fake := apitest.New(t)
	uid, token := fake.AddUser("boss", "pw", "Boss")
	id := fake.AddMedia(uid, "job.jpg", "Title", "{}")
	c := newTestClient(t, fake, AvatarRequired)

	require.NoError(t, c.DeleteMedia(context.Background(), token, id))
	_, ok := fake.Media(id)
	assert.False(t, ok)

	err := c.DeleteMedia(context.Background(), token, id)
	var appErr *ApplicationError
	assert.ErrorAs(t, err, &appErr)
}

func TestUploadMedia_ContentType(t *testing.T) {
	tests := []struct {
		name     string
		upload   Upload
		wantType string
	}{
		{"from extension", Upload{FileName: "photo.PNG"}, "image/png"},
		{"explicit jpg alias", Upload{FileName: "photo", ContentType: "image/jpg"}, "image/jpeg"},
		{"unknown", Upload{FileName: "blob"}, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, uploadContentType(tt.upload))
		})
	}
}

func TestUploadMedia(t *testing.T) {
	fake := apitest.New(t)
	uid, token := fake.AddUser("boss", "pw", "Boss")
	c := newTestClient(t, fake, AvatarRequired)

	var d JobDetails
	d.Description = "Roof repair"
	d.SetJob(true)

	res, err := c.UploadMedia(context.Background(), token, Upload{
		Title:    "Roofer",
		Details:  d,
		FileName: "dir/roof.jpg",
		File:     strings.NewReader("bytes"),
	})
	require.NoError(t, err)

	stored, ok := fake.Media(res.FileID)
	require.True(t, ok)
	assert.Equal(t, uid, stored.UserID)
	assert.Equal(t, `{"description":"Roof repair","job":true}`, stored.Description)
	assert.Equal(t, "roof.jpg", fake.LastUpload().FileName)
}
