package domain

// Optional 明確區分「未設定」與「設定為某值」
type Optional[T any] struct {
	value T
	set   bool
}

// Some 回傳已設定的 Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None 回傳未設定的 Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get 回傳值與是否已設定
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}
