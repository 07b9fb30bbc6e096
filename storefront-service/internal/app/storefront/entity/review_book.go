package entity

import (
	"errors"
	"time"
)

// ErrNoReviews возвращается при попытке посчитать средний рейтинг без отзывов
var ErrNoReviews = errors.New("no reviews to average")

// ReviewBook - отзывы позиции, проиндексированные по пользователю.
// Уникальность (позиция, пользователь) обеспечивается структурой, а не поиском по списку.
// Порядок отзывов сохраняется в том виде, в каком они хранятся в документе.
type ReviewBook struct {
	reviews []Review
	byUser  map[string]int
}

// NewReviewBook строит индекс по сохранённому списку.
// Если в документе оказались дубликаты одного пользователя (гонка конкурентных записей),
// остаётся первая позиция с данными последней записи.
func NewReviewBook(reviews []Review) *ReviewBook {
	book := &ReviewBook{
		reviews: make([]Review, 0, len(reviews)),
		byUser:  make(map[string]int, len(reviews)),
	}
	for _, r := range reviews {
		if idx, ok := book.byUser[r.User.ID]; ok {
			book.reviews[idx] = r
			continue
		}
		book.byUser[r.User.ID] = len(book.reviews)
		book.reviews = append(book.reviews, r)
	}
	return book
}

// Upsert обновляет отзыв пользователя на месте или добавляет новый.
// Возвращает true, если отзыв был создан.
func (b *ReviewBook) Upsert(review Review, now time.Time) bool {
	if idx, ok := b.byUser[review.User.ID]; ok {
		existing := &b.reviews[idx]
		existing.Rating = review.Rating
		existing.Comment = review.Comment
		existing.User = review.User
		existing.UpdatedAt = now
		return false
	}

	review.CreatedAt = now
	review.UpdatedAt = now
	b.byUser[review.User.ID] = len(b.reviews)
	b.reviews = append(b.reviews, review)
	return true
}

func (b *ReviewBook) Get(userID string) (Review, bool) {
	idx, ok := b.byUser[userID]
	if !ok {
		return Review{}, false
	}
	return b.reviews[idx], true
}

func (b *ReviewBook) Len() int {
	return len(b.reviews)
}

// Reviews возвращает отзывы в порядке хранения
func (b *ReviewBook) Reviews() []Review {
	out := make([]Review, len(b.reviews))
	copy(out, b.reviews)
	return out
}

// MeanRating - невзвешенное среднее всех оценок
func (b *ReviewBook) MeanRating() (float64, error) {
	if len(b.reviews) == 0 {
		return 0, ErrNoReviews
	}
	sum := 0
	for _, r := range b.reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(b.reviews)), nil
}
