package arrowops

type valueArray[T comparable] interface {
	IsNull(i int) bool
	Value(i int) T
	Len() int
}

type arrayBuilder[T comparable] interface {
	Append(T)
	AppendNull()
	Reserve(int)
	Release()
}
