package api

import (
	"context"
	"net/http"
)

// AddFavourite marks a file as a favourite of the token's user.
func (c *Client) AddFavourite(ctx context.Context, token string, fileID int) (*Favourite, error) {
	r, err := jsonRequest(http.MethodPost, "favourites", token, true, favouriteRequest{FileID: fileID})
	if err != nil {
		return nil, err
	}
	var resp favouriteCreateResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &Favourite{ID: resp.FavouriteID, FileID: fileID}, nil
}

// RemoveFavourite unmarks a file. Removing a favourite that does not exist
// fails with an *ApplicationError.
func (c *Client) RemoveFavourite(ctx context.Context, token string, fileID int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "favourites/file/" + itoa(fileID), token: token, auth: true}, nil)
}

// ListFavourites returns the favourite items of the token's user, each with
// its uploader attached. The uploader is the owner of the media item, not
// the owner of the favourite record.
func (c *Client) ListFavourites(ctx context.Context, token string) ([]MediaItem, error) {
	var favs []favouriteResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "favourites", token: token, auth: true}, &favs); err != nil {
		return nil, err
	}

	items := make([]MediaItem, len(favs))
	err := c.fanOut(ctx, "favourites", len(favs), func(ctx context.Context, i int) error {
		item, err := c.GetMedia(ctx, favs[i].FileID)
		if err != nil {
			return &EnrichmentError{Step: EnrichMedia, ID: favs[i].FileID, Err: err}
		}
		u, err := c.GetUser(ctx, token, item.UserID)
		if err != nil {
			return &EnrichmentError{Step: EnrichUploader, ID: item.ID, Err: err}
		}
		item.Uploader = u
		items[i] = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
