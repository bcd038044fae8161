package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/okian/cvranker/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func subscores(v float64) model.Subscores {
	return model.Subscores{
		Education:  model.Subscore{Score: v, Justification: "edu"},
		Experience: model.Subscore{Score: v, Justification: "exp"},
		TechSkills: model.Subscore{Score: v, Justification: "tech"},
		SoftSkills: model.Subscore{Score: v, Justification: "soft"},
	}
}

func TestScore_TaggedVariant(t *testing.T) {
	Convey("Given an unscored state", t, func() {
		var s model.Score

		Convey("Then it reports not scored and is valid", func() {
			So(s.IsScored(), ShouldBeFalse)
			So(s.Valid(), ShouldBeTrue)
		})

		Convey("Then it encodes as JSON null", func() {
			b, err := json.Marshal(s)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "null")
		})
	})

	Convey("Given a scored state", t, func() {
		s := model.NewScore(0.62, subscores(0.5))

		Convey("Then it reports scored and valid", func() {
			So(s.IsScored(), ShouldBeTrue)
			So(s.Valid(), ShouldBeTrue)
		})

		Convey("Then it round-trips through JSON", func() {
			b, err := json.Marshal(s)
			So(err, ShouldBeNil)

			var back model.Score
			So(json.Unmarshal(b, &back), ShouldBeNil)
			So(back.Kind, ShouldEqual, model.Scored)
			So(back.Value, ShouldEqual, 0.62)
			So(back.Subscores.TechSkills.Justification, ShouldEqual, "tech")
		})

		Convey("And a zero score stays distinguishable from unscored", func() {
			zero := model.NewScore(0, subscores(0))
			b, err := json.Marshal(zero)
			So(err, ShouldBeNil)
			So(string(b), ShouldNotEqual, "null")
			So(zero.IsScored(), ShouldBeTrue)
		})
	})

	Convey("Given malformed scored states", t, func() {
		Convey("Then an out-of-range value is not usable", func() {
			s := model.NewScore(1.4, subscores(0.5))
			So(s.IsScored(), ShouldBeFalse)
			So(s.Valid(), ShouldBeFalse)
		})

		Convey("Then a NaN value is not usable", func() {
			s := model.NewScore(math.NaN(), subscores(0.5))
			So(s.IsScored(), ShouldBeFalse)
		})

		Convey("Then an out-of-range subscore fails validation", func() {
			subs := subscores(0.5)
			subs.Experience.Score = -0.1
			s := model.NewScore(0.5, subs)
			So(s.Valid(), ShouldBeFalse)
		})
	})

	Convey("Given JSON null", t, func() {
		var s model.Score
		So(json.Unmarshal([]byte("null"), &s), ShouldBeNil)

		Convey("Then it decodes to the unscored state", func() {
			So(s.Kind, ShouldEqual, model.Unscored)
		})
	})
}

func TestCV_ScoreSerialization(t *testing.T) {
	Convey("Given a CV without a score", t, func() {
		cv := model.CV{ID: "cv-1", JobID: "job-1", Filename: "a.pdf"}

		Convey("When marshalled", func() {
			b, err := json.Marshal(cv)
			So(err, ShouldBeNil)

			Convey("Then the score field is an explicit null", func() {
				var m map[string]json.RawMessage
				So(json.Unmarshal(b, &m), ShouldBeNil)
				So(string(m["score"]), ShouldEqual, "null")
			})
		})
	})
}
