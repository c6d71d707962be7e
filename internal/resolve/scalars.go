package resolve

import (
	"fmt"

	"github.com/hanpama/membergraph/internal/entity"
	"github.com/hanpama/membergraph/internal/model"
)

// project reads a scalar field off an already loaded record.
func project(objectType, field string, source any) (any, error) {
	switch src := source.(type) {
	case *model.User:
		switch field {
		case "id":
			return src.ID, nil
		case "name":
			return src.Name, nil
		case "balance":
			return src.Balance, nil
		}
	case *model.Profile:
		switch field {
		case "id":
			return src.ID, nil
		case "isMale":
			return src.IsMale, nil
		case "yearOfBirth":
			return src.YearOfBirth, nil
		case "userId":
			return src.UserID, nil
		case "memberTypeId":
			return src.MemberTypeID, nil
		}
	case *model.Post:
		switch field {
		case "id":
			return src.ID, nil
		case "title":
			return src.Title, nil
		case "content":
			return src.Content, nil
		case "authorId":
			return src.AuthorID, nil
		}
	case *model.MemberType:
		switch field {
		case "id":
			return src.ID, nil
		case "discount":
			return src.Discount, nil
		case "postsLimitPerMonth":
			return src.PostsLimitPerMonth, nil
		}
	}
	return nil, fmt.Errorf("no field %s.%s on %T", objectType, field, source)
}

// serializeLeaf converts a projected value to its JSON form.
func serializeLeaf(typeName string, value any) (any, error) {
	switch typeName {
	case entity.UUIDScalar, "ID", "String":
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
	case entity.MemberTypeEnum:
		id, err := model.ParseMemberTypeID(value)
		if err != nil {
			return nil, err
		}
		return string(id), nil
	case "Int":
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	default:
		return nil, fmt.Errorf("unknown leaf type %s", typeName)
	}
	return nil, fmt.Errorf("%s cannot represent %T", typeName, value)
}
