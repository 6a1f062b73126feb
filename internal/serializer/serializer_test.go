package serializer

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/merr"
)

type SerializerSuite struct {
	suite.Suite

	value pickle.Value
}

func (s *SerializerSuite) SetupTest() {
	s.value = pickle.Mapping(
		pickle.KV(pickle.String("name"), pickle.String("hud")),
		pickle.KV(pickle.String("rect"), pickle.IntTuple(10, 20, 300, 150)),
		pickle.KV(pickle.String("visible"), pickle.Bool(true)),
		pickle.KV(pickle.String("alpha"), pickle.Float(0.5)),
		pickle.KV(pickle.String("parent"), pickle.None()),
	)
}

func (s *SerializerSuite) TestForFormat() {
	for _, name := range Formats() {
		ser, err := ForFormat(name)
		s.Require().NoError(err)
		s.Equal(name, ser.Name())
	}
	ser, err := ForFormat(" Protobuf ")
	s.Require().NoError(err)
	s.Equal(FormatProto, ser.Name())

	_, err = ForFormat("yaml")
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *SerializerSuite) TestJSON() {
	b, err := JSONSerializer{}.Marshal(s.value.Interface())
	s.Require().NoError(err)
	s.JSONEq(`{"name":"hud","rect":[10,20,300,150],"visible":true,"alpha":0.5,"parent":null}`, string(b))

	var got map[string]any
	s.Require().NoError(JSONSerializer{}.Unmarshal(b, &got))
	s.Equal("hud", got["name"])
}

func (s *SerializerSuite) TestJSONDeterministic() {
	a, err := JSONSerializer{}.Marshal(s.value.Interface())
	s.Require().NoError(err)
	b, err := JSONSerializer{}.Marshal(s.value.Interface())
	s.Require().NoError(err)
	s.Equal(a, b)
}

func (s *SerializerSuite) TestCBOR() {
	b, err := CBORSerializer{}.Marshal(s.value.Interface())
	s.Require().NoError(err)

	again, err := CBORSerializer{}.Marshal(s.value.Interface())
	s.Require().NoError(err)
	s.Equal(b, again)

	var got map[string]any
	s.Require().NoError(CBORSerializer{}.Unmarshal(b, &got))
	s.Equal("hud", got["name"])
	s.Equal(true, got["visible"])
	s.Nil(got["parent"])
	s.Len(got["rect"], 4)
}

func (s *SerializerSuite) TestProto() {
	b, err := ProtoSerializer{}.Marshal(s.value.Interface())
	s.Require().NoError(err)

	var got any
	s.Require().NoError(ProtoSerializer{}.Unmarshal(b, &got))
	m, ok := got.(map[string]any)
	s.Require().True(ok)
	s.Equal("hud", m["name"])
	s.Equal([]any{10.0, 20.0, 300.0, 150.0}, m["rect"])
	s.Equal(0.5, m["alpha"])

	pv := &structpb.Value{}
	s.Require().NoError(ProtoSerializer{}.Unmarshal(b, pv))
	s.Equal("hud", pv.GetStructValue().GetFields()["name"].GetStringValue())

	msg, err := ProtoSerializer{}.Marshal(structpb.NewStringValue("hud"))
	s.Require().NoError(err)
	s.NotEmpty(msg)

	var wrong map[string]any
	s.Error(ProtoSerializer{}.Unmarshal(b, &wrong))

	_, err = ProtoSerializer{}.Marshal(make(chan int))
	s.Error(err)
}

func TestSerializer(t *testing.T) {
	suite.Run(t, new(SerializerSuite))
}
