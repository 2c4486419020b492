// Package cos provides common low-level types and utilities for the DTL:
// the typed error catalogue and checked arithmetic helpers shared by
// every other package.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"fmt"
)

// Named failure kinds, one struct per row of the error table: each carries
// just enough context to explain itself and is recognized via IsErrXxx
// rather than string-matching Error().

type (
	ErrUndefinedEngineType struct{ stream string }

	ErrUndefinedTransportMethod struct{ stream string }

	ErrInvalidEngineAndTransportCombination struct {
		engine, transport string
	}

	ErrInconsistentVariableDefinition struct {
		name, reason string
	}

	ErrMultipleVariableDefinition struct {
		name, reason string
	}

	ErrUnknownVariable struct{ name string }

	ErrUnknownReductionMethod struct{ kind string }

	ErrUnknownDecimationOption struct{ key string }

	ErrInconsistentDecimationStride struct{ reason string }

	ErrUnknownDecimationInterpolation struct{ value string }

	ErrUnknownCompressionOption struct{ key string }

	ErrInconsistentCompressionRatio struct{ reason string }

	ErrSubscriberSideCompression struct{ varname string }

	ErrDoubleReduction struct{ varname string }

	ErrOverflow struct{ what string }

	// ErrUsage covers usage-protocol violations that spec.md calls out in
	// prose rather than naming as a distinct catchable kind (unbalanced
	// connect/disconnect, operating an Engine out of its required state).
	ErrUsage struct{ reason string }
)

func NewErrUndefinedEngineType(stream string) *ErrUndefinedEngineType {
	return &ErrUndefinedEngineType{stream}
}

func (e *ErrUndefinedEngineType) Error() string {
	return fmt.Sprintf("stream %q: engine type is undefined", e.stream)
}

func NewErrUndefinedTransportMethod(stream string) *ErrUndefinedTransportMethod {
	return &ErrUndefinedTransportMethod{stream}
}

func (e *ErrUndefinedTransportMethod) Error() string {
	return fmt.Sprintf("stream %q: transport method is undefined", e.stream)
}

func NewErrInvalidEngineAndTransportCombination(engine, transport string) *ErrInvalidEngineAndTransportCombination {
	return &ErrInvalidEngineAndTransportCombination{engine, transport}
}

func (e *ErrInvalidEngineAndTransportCombination) Error() string {
	return fmt.Sprintf("invalid engine/transport combination: %s/%s", e.engine, e.transport)
}

func NewErrInconsistentVariableDefinition(name, reason string) *ErrInconsistentVariableDefinition {
	return &ErrInconsistentVariableDefinition{name, reason}
}

func (e *ErrInconsistentVariableDefinition) Error() string {
	return fmt.Sprintf("inconsistent definition of variable %q: %s", e.name, e.reason)
}

func NewErrMultipleVariableDefinition(name, reason string) *ErrMultipleVariableDefinition {
	return &ErrMultipleVariableDefinition{name, reason}
}

func (e *ErrMultipleVariableDefinition) Error() string {
	return fmt.Sprintf("conflicting redefinition of variable %q: %s", e.name, e.reason)
}

func NewErrUnknownVariable(name string) *ErrUnknownVariable { return &ErrUnknownVariable{name} }

func (e *ErrUnknownVariable) Error() string {
	return fmt.Sprintf("variable %q does not exist", e.name)
}

func NewErrUnknownReductionMethod(kind string) *ErrUnknownReductionMethod {
	return &ErrUnknownReductionMethod{kind}
}

func (e *ErrUnknownReductionMethod) Error() string {
	return fmt.Sprintf("unknown reduction method %q", e.kind)
}

func NewErrUnknownDecimationOption(key string) *ErrUnknownDecimationOption {
	return &ErrUnknownDecimationOption{key}
}

func (e *ErrUnknownDecimationOption) Error() string {
	return fmt.Sprintf("unknown decimation option %q", e.key)
}

func NewErrInconsistentDecimationStride(reason string) *ErrInconsistentDecimationStride {
	return &ErrInconsistentDecimationStride{reason}
}

func (e *ErrInconsistentDecimationStride) Error() string {
	return "inconsistent decimation stride: " + e.reason
}

func NewErrUnknownDecimationInterpolation(value string) *ErrUnknownDecimationInterpolation {
	return &ErrUnknownDecimationInterpolation{value}
}

func (e *ErrUnknownDecimationInterpolation) Error() string {
	return fmt.Sprintf("unknown decimation interpolation %q", e.value)
}

func NewErrUnknownCompressionOption(key string) *ErrUnknownCompressionOption {
	return &ErrUnknownCompressionOption{key}
}

func (e *ErrUnknownCompressionOption) Error() string {
	return fmt.Sprintf("unknown compression option %q", e.key)
}

func NewErrInconsistentCompressionRatio(reason string) *ErrInconsistentCompressionRatio {
	return &ErrInconsistentCompressionRatio{reason}
}

func (e *ErrInconsistentCompressionRatio) Error() string {
	return "inconsistent compression ratio: " + e.reason
}

func NewErrSubscriberSideCompression(varname string) *ErrSubscriberSideCompression {
	return &ErrSubscriberSideCompression{varname}
}

func (e *ErrSubscriberSideCompression) Error() string {
	return fmt.Sprintf("variable %q: subscribers may not attach compression", e.varname)
}

func NewErrDoubleReduction(varname string) *ErrDoubleReduction { return &ErrDoubleReduction{varname} }

func (e *ErrDoubleReduction) Error() string {
	return fmt.Sprintf("variable %q already carries a publisher-applied reduction", e.varname)
}

func NewErrOverflow(what string) *ErrOverflow { return &ErrOverflow{what} }

func (e *ErrOverflow) Error() string { return "overflow computing " + e.what }

func NewErrUsage(reason string) *ErrUsage { return &ErrUsage{reason} }

func (e *ErrUsage) Error() string { return "usage error: " + e.reason }

// IsErrXxx predicates - callers switch on kind without string-matching Error().

func IsErrUndefinedEngineType(err error) bool {
	var e *ErrUndefinedEngineType
	return errors.As(err, &e)
}

func IsErrUndefinedTransportMethod(err error) bool {
	var e *ErrUndefinedTransportMethod
	return errors.As(err, &e)
}

func IsErrInvalidEngineAndTransportCombination(err error) bool {
	var e *ErrInvalidEngineAndTransportCombination
	return errors.As(err, &e)
}

func IsErrInconsistentVariableDefinition(err error) bool {
	var e *ErrInconsistentVariableDefinition
	return errors.As(err, &e)
}

func IsErrMultipleVariableDefinition(err error) bool {
	var e *ErrMultipleVariableDefinition
	return errors.As(err, &e)
}

func IsErrUnknownVariable(err error) bool {
	var e *ErrUnknownVariable
	return errors.As(err, &e)
}

func IsErrUnknownReductionMethod(err error) bool {
	var e *ErrUnknownReductionMethod
	return errors.As(err, &e)
}

func IsErrUnknownDecimationOption(err error) bool {
	var e *ErrUnknownDecimationOption
	return errors.As(err, &e)
}

func IsErrInconsistentDecimationStride(err error) bool {
	var e *ErrInconsistentDecimationStride
	return errors.As(err, &e)
}

func IsErrUnknownDecimationInterpolation(err error) bool {
	var e *ErrUnknownDecimationInterpolation
	return errors.As(err, &e)
}

func IsErrUnknownCompressionOption(err error) bool {
	var e *ErrUnknownCompressionOption
	return errors.As(err, &e)
}

func IsErrInconsistentCompressionRatio(err error) bool {
	var e *ErrInconsistentCompressionRatio
	return errors.As(err, &e)
}

func IsErrSubscriberSideCompression(err error) bool {
	var e *ErrSubscriberSideCompression
	return errors.As(err, &e)
}

func IsErrDoubleReduction(err error) bool {
	var e *ErrDoubleReduction
	return errors.As(err, &e)
}

func IsErrOverflow(err error) bool {
	var e *ErrOverflow
	return errors.As(err, &e)
}

func IsErrUsage(err error) bool {
	var e *ErrUsage
	return errors.As(err, &e)
}
