package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Realm separates the buyer and seller namespaces. Usernames are unique per
// realm and a session minted in one realm never authorizes the other.
type Realm string

const (
	RealmBuyer  Realm = "buyer"
	RealmSeller Realm = "seller"
)

// Valid reports whether r is one of the two known realms.
func (r Realm) Valid() bool { return r == RealmBuyer || r == RealmSeller }

// Account is a registered buyer or seller. The thumbs counters are only
// meaningful for sellers; they aggregate feedback left on the seller's items.
type Account struct {
	ID           int64     `json:"id"`
	Realm        Realm     `json:"realm"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	ThumbsUp     int64     `json:"thumbs_up"`
	ThumbsDown   int64     `json:"thumbs_down"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is one login. LastActive is refreshed on every authenticated call;
// a session older than the configured timeout is treated as nonexistent.
type Session struct {
	Token      string    `json:"token"`
	AccountID  int64     `json:"account_id"`
	Realm      Realm     `json:"realm"`
	LastActive time.Time `json:"last_active"`
}

// ItemID identifies an item by its category and the sequential number
// allocated within that category.
type ItemID struct {
	Category string `json:"category"`
	Number   int64  `json:"number"`
}

// String renders the identity in the "category/number" form used on the wire.
func (id ItemID) String() string {
	return id.Category + "/" + strconv.FormatInt(id.Number, 10)
}

// ParseItemID parses the "category/number" form.
func ParseItemID(s string) (ItemID, error) {
	cat, num, ok := strings.Cut(s, "/")
	if !ok || cat == "" {
		return ItemID{}, fmt.Errorf("malformed item id %q", s)
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n <= 0 {
		return ItemID{}, fmt.Errorf("malformed item id %q", s)
	}
	return ItemID{Category: cat, Number: n}, nil
}

// Condition tags the physical state of a listed item.
type Condition string

const (
	ConditionNew  Condition = "New"
	ConditionUsed Condition = "Used"
)

// Item is one catalog listing. Stock and Reserved are maintained by the
// inventory ledger; Stock-Reserved is the quantity still available to carts.
type Item struct {
	ID         ItemID    `json:"id"`
	SellerID   int64     `json:"seller_id"`
	Name       string    `json:"name"`
	Condition  Condition `json:"condition"`
	PriceCents int64     `json:"price_cents"`
	Stock      int64     `json:"stock"`
	Reserved   int64     `json:"reserved"`
	ThumbsUp   int64     `json:"thumbs_up"`
	ThumbsDown int64     `json:"thumbs_down"`
	Keywords   []string  `json:"keywords,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Available is the stock not yet claimed by any cart.
func (it Item) Available() int64 { return it.Stock - it.Reserved }

// CartLine is one buyer's claim on an item. Saved lines survive the
// logout-triggered cleanup of the buyer's cart.
type CartLine struct {
	BuyerID int64  `json:"buyer_id"`
	Item    ItemID `json:"item"`
	Qty     int64  `json:"qty"`
	Saved   bool   `json:"saved"`
}

// PurchaseRecord is an append-only record of one purchased cart line.
type PurchaseRecord struct {
	ID          string    `json:"id"`
	BuyerID     int64     `json:"buyer_id"`
	Item        ItemID    `json:"item"`
	Qty         int64     `json:"qty"`
	PriceCents  int64     `json:"price_cents"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// Rating is a pair of monotonically increasing feedback tallies.
type Rating struct {
	ThumbsUp   int64 `json:"thumbs_up"`
	ThumbsDown int64 `json:"thumbs_down"`
}

// PaymentCard carries the fields forwarded to the payment-authorization
// service. It is validated before any external call is made.
type PaymentCard struct {
	HolderName string `json:"holder_name"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"` // MM/YY
	CVV        string `json:"cvv"`
}
