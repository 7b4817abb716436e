package content

import (
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// ItemIndexable exposes a content item to the resolver.
type ItemIndexable struct {
	item *Item
}

var _ resolver.TreeIndexable = (*ItemIndexable)(nil)

// NewIndexable wraps an item.
func NewIndexable(item *Item) *ItemIndexable {
	return &ItemIndexable{item: item}
}

// Item returns the wrapped item.
func (i *ItemIndexable) Item() *Item { return i.item }

// ID returns the item ID.
func (i *ItemIndexable) ID() string {
	if i.item == nil {
		return ""
	}
	return i.item.ID
}

// AbsolutePath returns the item path.
func (i *ItemIndexable) AbsolutePath() string {
	if i.item == nil {
		return ""
	}
	return i.item.Path
}

// TreePosition returns the item position in its tree.
func (i *ItemIndexable) TreePosition() (resolver.TreePosition, bool) {
	if i.item == nil {
		return resolver.TreePosition{}, false
	}
	return i.item.Position(), true
}

// ExternalIndexable is a document that lives outside any content tree,
// such as a crawled web page.
type ExternalIndexable struct {
	URL string
}

// ID returns the document URL.
func (e ExternalIndexable) ID() string { return e.URL }

// AbsolutePath returns the document URL.
func (e ExternalIndexable) AbsolutePath() string { return e.URL }
