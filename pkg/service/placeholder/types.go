package placeholder

import "github.com/secmon-lab/itemdeck/pkg/domain/model"

// post is the wire shape of the remote "posts" resource.
type post struct {
	ID     model.ItemID `json:"id,omitempty"`
	Title  *string      `json:"title,omitempty"`
	Body   *string      `json:"body,omitempty"`
	UserID int          `json:"userId"`
}

// defaultUserID is sent with every write; the resource requires an owner.
const defaultUserID = 1

func newPost(id model.ItemID, title, description string) *post {
	return &post{
		ID:     id,
		Title:  &title,
		Body:   &description,
		UserID: defaultUserID,
	}
}

// toItem maps body to description. Missing fields become empty strings.
func (p *post) toItem() *model.Item {
	item := &model.Item{ID: p.ID}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Body != nil {
		item.Description = *p.Body
	}
	return item
}
