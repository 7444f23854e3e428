package main

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/config"
	"couplerecipe/internal/db"
	"couplerecipe/internal/model"
)

// Fixed ids keep the seed idempotent: rerunning updates in place instead of
// duplicating the demo household.
var (
	identityA = uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	identityB = uuid.MustParse("9c858901-8a57-4791-81fe-4c455b099bc9")
	userA     = uuid.MustParse("16fd2706-8baf-433b-82eb-8c7fada847da")
	userB     = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
)

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.Identity{},
		&model.User{},
		&model.Recipe{},
		&model.Tag{},
		&model.TagRelation{},
		&model.MealPlan{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	if err := seedHousehold(gormDB); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}
	log.Println("Seed completed successfully!")
}

func seedHousehold(gormDB *gorm.DB) error {
	return gormDB.Transaction(func(tx *gorm.DB) error {
		emailA := "taro@example.com"
		emailB := "hanako@example.com"
		identities := []model.Identity{
			{ID: identityA, Email: &emailA, IsAnonymous: false},
			{ID: identityB, Email: &emailB, IsAnonymous: false},
		}
		for i := range identities {
			if err := upsertIdentity(tx, &identities[i]); err != nil {
				return err
			}
		}

		nickA, roleA := "Taro", model.RoleHusband
		nickB, roleB := "Hanako", model.RoleWife
		users := []model.User{
			{ID: userA, AuthID: identityA, DisplayName: "Taro", Nickname: &nickA, Role: &roleA, PairedWith: &userB},
			{ID: userB, AuthID: identityB, DisplayName: "Hanako", Nickname: &nickB, Role: &roleB, PairedWith: &userA},
		}
		for i := range users {
			if err := upsertUser(tx, &users[i]); err != nil {
				return err
			}
		}
		log.Println("Seeded paired demo couple")

		tags := []model.Tag{
			{UserID: userA, Name: "Japanese", Color: "#E85A4F"},
			{UserID: userA, Name: "Quick", Color: "#4F8BE8"},
			{UserID: userB, Name: "Weekend", Color: "#5AB88A"},
		}
		for i := range tags {
			if err := tx.Where("user_id = ? AND name = ?", tags[i].UserID, tags[i].Name).
				FirstOrCreate(&tags[i]).Error; err != nil {
				return err
			}
		}
		log.Printf("Seeded %d tags", len(tags))

		recipes := []model.Recipe{
			{UserID: userA, Title: "Nikujaga", RecipeURL: "https://example.com/nikujaga", CookingTimeMinutes: 45, Memo: "Family favorite"},
			{UserID: userA, Title: "Miso Soup", CookingTimeMinutes: 15},
			{UserID: userB, Title: "Omurice", RecipeURL: "https://example.com/omurice", CookingTimeMinutes: 30},
		}
		for i := range recipes {
			if err := tx.Where("user_id = ? AND title = ?", recipes[i].UserID, recipes[i].Title).
				FirstOrCreate(&recipes[i]).Error; err != nil {
				return err
			}
		}

		relations := []model.TagRelation{
			{RecipeID: recipes[0].ID, TagID: tags[0].ID},
			{RecipeID: recipes[1].ID, TagID: tags[0].ID},
			{RecipeID: recipes[1].ID, TagID: tags[1].ID},
			{RecipeID: recipes[2].ID, TagID: tags[2].ID},
		}
		for i := range relations {
			if err := tx.Where("recipe_id = ? AND tag_id = ?", relations[i].RecipeID, relations[i].TagID).
				FirstOrCreate(&relations[i]).Error; err != nil {
				return err
			}
		}
		log.Printf("Seeded %d recipes with tag relations", len(recipes))

		monday := nextMonday(time.Now())
		plans := []model.MealPlan{
			{UserID: userA, Date: monday, MealType: model.MealTypeDinner, RecipeID: &recipes[0].ID},
			{UserID: userB, Date: monday.AddDate(0, 0, 1), MealType: model.MealTypeLunch, RecipeID: &recipes[2].ID},
			{UserID: userA, Date: monday.AddDate(0, 0, 2), MealType: model.MealTypeDinner, RecipeID: &recipes[1].ID, Notes: "add tofu"},
		}
		for i := range plans {
			if err := tx.Where("user_id = ? AND date = ? AND meal_type = ?",
				plans[i].UserID, plans[i].Date, plans[i].MealType).
				FirstOrCreate(&plans[i]).Error; err != nil {
				return err
			}
		}
		log.Printf("Seeded %d meal plans starting %s", len(plans), monday.Format("2006-01-02"))
		return nil
	})
}

func upsertIdentity(tx *gorm.DB, identity *model.Identity) error {
	var existing model.Identity
	err := tx.Where("id = ?", identity.ID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(identity).Error
	}
	if err != nil {
		return err
	}
	return tx.Save(identity).Error
}

func upsertUser(tx *gorm.DB, user *model.User) error {
	var existing model.User
	err := tx.Where("id = ?", user.ID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(user).Error
	}
	if err != nil {
		return err
	}
	return tx.Save(user).Error
}

func nextMonday(from time.Time) time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
