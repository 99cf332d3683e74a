package repository

import (
	"testing"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/models"

	"gorm.io/gorm"
)

func TestCartItemLineIsUniquePerProductVariant(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	user := seedUser(t, db, "bob", constants.RoleCustomer)
	product := seedProduct(t, db, "CAP-1", "15", 10)

	cart := &models.Cart{UserID: &user.ID}
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	if err := repo.CreateItem(&models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	err := repo.CreateItem(&models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 2})
	if err == nil {
		t.Fatalf("duplicate line should violate unique index")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("duplicate line want unique violation got %v", err)
	}

	item, err := repo.FindItem(cart.ID, product.ID, 0)
	if err != nil || item == nil {
		t.Fatalf("find item failed: %v", err)
	}
	if err := repo.IncrementItemQuantity(item.ID, 3); err != nil {
		t.Fatalf("increment quantity failed: %v", err)
	}
	loaded, err := repo.GetByUser(user.ID)
	if err != nil || loaded == nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Quantity != 4 {
		t.Fatalf("cart items want one line of 4 got %+v", loaded.Items)
	}
	if loaded.Items[0].Product == nil {
		t.Fatalf("cart item product should be preloaded")
	}
}

func TestCartSessionLookupIgnoresClaimedCarts(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	user := seedUser(t, db, "carol", constants.RoleCustomer)
	session := "sess-1"

	cart := &models.Cart{SessionKey: &session}
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	got, err := repo.GetBySession(session)
	if err != nil || got == nil || got.ID != cart.ID {
		t.Fatalf("session cart want %d got %+v err=%v", cart.ID, got, err)
	}

	if err := db.Model(cart).Update("user_id", user.ID).Error; err != nil {
		t.Fatalf("claim cart failed: %v", err)
	}
	got, err = repo.GetBySession(session)
	if err != nil {
		t.Fatalf("get by session failed: %v", err)
	}
	if got != nil {
		t.Fatalf("claimed cart should not be returned by session lookup")
	}
}

func TestCartClearAndDelete(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	product := seedProduct(t, db, "CAP-2", "15", 10)
	other := seedProduct(t, db, "CAP-3", "15", 10)
	session := "sess-2"
	cart := &models.Cart{SessionKey: &session}
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	for _, p := range []*models.Product{product, other} {
		if err := repo.CreateItem(&models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 1}); err != nil {
			t.Fatalf("create item failed: %v", err)
		}
	}
	rows, err := repo.ClearItems(cart.ID)
	if err != nil || rows != 2 {
		t.Fatalf("clear items want 2 got %d err=%v", rows, err)
	}
	if err := repo.Delete(cart.ID); err != nil {
		t.Fatalf("delete cart failed: %v", err)
	}
	got, err := repo.GetByID(cart.ID)
	if err != nil || got != nil {
		t.Fatalf("deleted cart want nil got %+v err=%v", got, err)
	}
}

func TestCartLockListAndDeleteSelectedItems(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db)
	first := seedProduct(t, db, "CAP-4", "15", 10)
	second := seedProduct(t, db, "CAP-5", "15", 10)
	session := "sess-3"
	cart := &models.Cart{SessionKey: &session}
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	keep := &models.CartItem{CartID: cart.ID, ProductID: first.ID, Quantity: 1}
	drop := &models.CartItem{CartID: cart.ID, ProductID: second.ID, Quantity: 2}
	for _, item := range []*models.CartItem{keep, drop} {
		if err := repo.CreateItem(item); err != nil {
			t.Fatalf("create item failed: %v", err)
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		locked, err := txRepo.LockByID(cart.ID)
		if err != nil || locked == nil || locked.ID != cart.ID {
			t.Fatalf("lock cart want %d got %+v err=%v", cart.ID, locked, err)
		}
		if len(locked.Items) != 0 {
			t.Fatalf("locked cart should not preload items")
		}
		items, err := txRepo.ListItems(cart.ID)
		if err != nil || len(items) != 2 {
			t.Fatalf("list items want 2 got %d err=%v", len(items), err)
		}
		rows, err := txRepo.DeleteItems(cart.ID, []uint{drop.ID})
		if err != nil || rows != 1 {
			t.Fatalf("delete items want 1 got %d err=%v", rows, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	if rows, err := repo.DeleteItems(cart.ID, nil); err != nil || rows != 0 {
		t.Fatalf("empty delete want 0 got %d err=%v", rows, err)
	}
	remaining, err := repo.ListItems(cart.ID)
	if err != nil || len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Fatalf("remaining items want [%d] got %+v err=%v", keep.ID, remaining, err)
	}
	if missing, err := repo.LockByID(cart.ID + 100); err != nil || missing != nil {
		t.Fatalf("missing cart want nil got %+v err=%v", missing, err)
	}
}
